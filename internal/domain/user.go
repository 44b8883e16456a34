// Package domain contains core domain types for the Pawtine application.
package domain

import (
	"strings"
	"time"
)

// DefaultOwnerName is used when an owner never provided a display name.
const DefaultOwnerName = "Pawtine Pal"

// User represents a dog owner.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Name      string    `json:"name" yaml:"name"`
	Timezone  string    `json:"timezone" yaml:"timezone"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// DisplayName returns the owner's name or the default greeting name.
func (u *User) DisplayName() string {
	if u == nil || strings.TrimSpace(u.Name) == "" {
		return DefaultOwnerName
	}
	return u.Name
}
