package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
)

// AccessTokenClaims is the JWT payload minted by the identity service and
// consumed here. This service validates and reads tokens; it never issues them.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
