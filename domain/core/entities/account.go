package entities

import (
	"strings"
	"time"

	"foodiary/domain/core/valueobjects"
	pkgerrors "foodiary/pkg/errors"
)

// Account is the identity record of a user. The identity provider owns the
// credentials; ExternalID links the two once sign-up at the provider completes.
type Account struct {
	id         string
	email      string
	externalID string
	createdAt  time.Time
}

// NewAccount creates an account with a fresh time-sortable id
func NewAccount(email string) (*Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.NewValidationError("email cannot be empty")
	}

	return &Account{
		id:        valueobjects.NewID(),
		email:     email,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructAccount rebuilds an account from stored data
func ReconstructAccount(id, email, externalID string, createdAt time.Time) *Account {
	return &Account{
		id:         id,
		email:      email,
		externalID: externalID,
		createdAt:  createdAt.UTC(),
	}
}

// NormalizeEmail lowercases and trims an email so key derivation is stable
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AssignExternalID links the account to its identity-provider user
func (a *Account) AssignExternalID(externalID string) error {
	if externalID == "" {
		return pkgerrors.NewValidationError("external id cannot be empty")
	}
	a.externalID = externalID
	return nil
}

func (a *Account) ID() string           { return a.id }
func (a *Account) Email() string        { return a.email }
func (a *Account) ExternalID() string   { return a.externalID }
func (a *Account) CreatedAt() time.Time { return a.createdAt }
