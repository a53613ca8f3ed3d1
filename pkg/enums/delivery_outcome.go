package enums

// DeliveryOutcome classifies one push delivery attempt against one device.
type DeliveryOutcome string

const (
	// DeliveryOutcomeDelivered means the push service accepted the message.
	DeliveryOutcomeDelivered DeliveryOutcome = "delivered"
	// DeliveryOutcomeGone means the endpoint no longer exists and the
	// subscription row should be purged.
	DeliveryOutcomeGone DeliveryOutcome = "gone"
	// DeliveryOutcomeTransient covers every non-permanent failure; the
	// subscription is retained and retried on the next dispatch.
	DeliveryOutcomeTransient DeliveryOutcome = "transient_failure"
)

// IsValid checks whether the given outcome matches the canonical enum.
func (d DeliveryOutcome) IsValid() bool {
	switch d {
	case DeliveryOutcomeDelivered, DeliveryOutcomeGone, DeliveryOutcomeTransient:
		return true
	}
	return false
}
