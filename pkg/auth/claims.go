package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT. The JTI
// doubles as the tracked session token, so revoking the session kills the
// token's server-side standing.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Roles    []string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Roles    []string  `json:"roles"`
	jwt.RegisteredClaims
}

// SessionToken returns the session token the JWT is bound to.
func (c *AccessTokenClaims) SessionToken() string {
	return c.ID
}

// HasRole reports whether the claims carry the named role.
func (c *AccessTokenClaims) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r == name {
			return true
		}
	}
	return false
}
