package domain

import (
	"strings"
	"time"
)

// DefaultDogName is stored when a profile update leaves the dog unnamed.
const DefaultDogName = "Unnamed Pup"

// Dog is the pet whose routines are tracked. Each user has at most one.
type Dog struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Name      string    `json:"name" yaml:"name"`
	Breed     *string   `json:"breed" yaml:"breed"`
	AgeMonths *int      `json:"age_months" yaml:"age_months"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// HasName reports whether the dog has a non-blank name.
func (d *Dog) HasName() bool {
	return d != nil && strings.TrimSpace(d.Name) != ""
}
