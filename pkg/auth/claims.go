package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/handyhub/handyhub-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Audience enums.Audience
	JTI      string
}

// AccessTokenClaims represents the typed JWT presented by clients. UserID is
// the authenticated subject used for the self-notify check.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Audience enums.Audience `json:"audience"`
	jwt.RegisteredClaims
}
