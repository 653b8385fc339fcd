package models

import (
	"github.com/golang-jwt/jwt/v5"

	"hrdocs/internal/domain/models/docsystem"
)

// ViewerClaims represents the JWT claims issued by the HR identity provider.
type ViewerClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"` // Admin, Management, Security or any other HR role
}

// GetViewerID returns the viewer ID from the JWT subject claim.
func (c *ViewerClaims) GetViewerID() string {
	return c.Subject
}

// ViewerRole returns the normalized role used by the visibility filter.
func (c *ViewerClaims) ViewerRole() docsystem.Role {
	return docsystem.ParseRole(c.Role)
}
