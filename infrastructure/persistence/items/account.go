package items

import (
	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
)

// AccountPK is the partition key of an account record
func AccountPK(accountID string) string { return "ACCOUNT#" + accountID }

// AccountSK is the sort key of an account record
func AccountSK(accountID string) string { return "ACCOUNT#" + accountID }

// AccountGSI1PK is the index partition key used to look accounts up by email
func AccountGSI1PK(email string) string { return "ACCOUNT#" + email }

// AccountGSI1SK is the index sort key of an account record
func AccountGSI1SK(email string) string { return "ACCOUNT#" + email }

// AccountKey addresses the account record of accountID
func AccountKey(accountID string) abstractions.Key {
	return abstractions.Key{PK: AccountPK(accountID), SK: AccountSK(accountID)}
}

// AccountItem is the stored form of an account
type AccountItem struct {
	Keys
	ID         string `dynamodbav:"id"`
	Email      string `dynamodbav:"email"`
	ExternalID string `dynamodbav:"externalId"`
	CreatedAt  string `dynamodbav:"createdAt"`
}

// NewAccountItem builds the record of an account
func NewAccountItem(a *entities.Account) AccountItem {
	return AccountItem{
		Keys: Keys{
			PK:     AccountPK(a.ID()),
			SK:     AccountSK(a.ID()),
			GSI1PK: AccountGSI1PK(a.Email()),
			GSI1SK: AccountGSI1SK(a.Email()),
			Type:   TypeAccount,
		},
		ID:         a.ID(),
		Email:      a.Email(),
		ExternalID: a.ExternalID(),
		CreatedAt:  formatTime(a.CreatedAt()),
	}
}

// Marshal converts the record to a store item
func (i AccountItem) Marshal() (abstractions.Item, error) {
	return marshal(TypeAccount, i)
}

// UnmarshalAccountItem decodes a stored account record
func UnmarshalAccountItem(item abstractions.Item) (AccountItem, error) {
	var out AccountItem
	err := unmarshal(TypeAccount, item, &out, "id", "email", "createdAt")
	return out, err
}

// ToEntity rebuilds the account
func (i AccountItem) ToEntity() (*entities.Account, error) {
	createdAt, err := parseTime(TypeAccount, "createdAt", i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructAccount(i.ID, i.Email, i.ExternalID, createdAt), nil
}

// AccountFromItem decodes a stored item straight into an account
func AccountFromItem(item abstractions.Item) (*entities.Account, error) {
	rec, err := UnmarshalAccountItem(item)
	if err != nil {
		return nil, err
	}
	return rec.ToEntity()
}
