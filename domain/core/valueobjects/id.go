package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// NewID creates a new identifier whose lexical order follows creation time (UUIDv7).
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does
		return uuid.New().String()
	}
	return id.String()
}

// ValidateID checks that id is a well-formed identifier
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("id must be a valid UUID")
	}
	return nil
}
