package enums

import "fmt"

// Audience distinguishes which side of the marketplace a user (and their
// registered devices) belongs to.
type Audience string

const (
	AudienceCustomer     Audience = "customer"
	AudienceProfessional Audience = "professional"
)

var validAudiences = []Audience{
	AudienceCustomer,
	AudienceProfessional,
}

// IsValid checks whether the given audience matches the canonical enum.
func (a Audience) IsValid() bool {
	for _, candidate := range validAudiences {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAudience converts raw strings into Audience.
func ParseAudience(value string) (Audience, error) {
	for _, candidate := range validAudiences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audience %q", value)
}
