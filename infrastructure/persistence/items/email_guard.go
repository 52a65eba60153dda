package items

import (
	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
)

// EmailGuardPK is the partition key of the record reserving an email
func EmailGuardPK(email string) string { return "EMAIL#" + email }

// EmailGuardSK is the sort key of the record reserving an email
func EmailGuardSK(email string) string { return "EMAIL#" + email }

// EmailGuardItem reserves an email address for one account. It is written
// with a not-exists condition in the same transaction as the account, which
// makes email uniqueness a property of the table rather than of the caller.
type EmailGuardItem struct {
	Keys
	Email     string `dynamodbav:"email"`
	AccountID string `dynamodbav:"accountId"`
}

// NewEmailGuardItem builds the guard record of an account's email
func NewEmailGuardItem(a *entities.Account) EmailGuardItem {
	return EmailGuardItem{
		Keys: Keys{
			PK:   EmailGuardPK(a.Email()),
			SK:   EmailGuardSK(a.Email()),
			Type: TypeEmailGuard,
		},
		Email:     a.Email(),
		AccountID: a.ID(),
	}
}

// Marshal converts the record to a store item
func (i EmailGuardItem) Marshal() (abstractions.Item, error) {
	return marshal(TypeEmailGuard, i)
}
