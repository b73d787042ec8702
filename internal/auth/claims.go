package auth

import (
	"time"

	"github.com/libraryhub/library-server/internal/domain"
)

// AccessClaims are the verified contents of an access token, independent
// of the token format that carried them.
type AccessClaims struct {
	MemberID int64       `json:"member_id"`
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`

	// Registered claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// Actor returns the audit actor for the token holder.
func (c *AccessClaims) Actor() domain.Actor {
	return domain.ActorFor(c.Email, c.Role)
}
