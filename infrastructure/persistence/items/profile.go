package items

import (
	"time"

	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
	pkgerrors "foodiary/pkg/errors"
)

// ProfilePK is the partition key of a profile record; profiles live in their
// account's partition
func ProfilePK(accountID string) string { return "ACCOUNT#" + accountID }

// ProfileSK is the sort key of a profile record
func ProfileSK(accountID string) string { return "ACCOUNT#" + accountID + "#PROFILE" }

// ProfileKey addresses the profile record of accountID
func ProfileKey(accountID string) abstractions.Key {
	return abstractions.Key{PK: ProfilePK(accountID), SK: ProfileSK(accountID)}
}

// ProfileItem is the stored form of a profile
type ProfileItem struct {
	Keys
	AccountID     string  `dynamodbav:"accountId"`
	Name          string  `dynamodbav:"name"`
	BirthDate     string  `dynamodbav:"birthDate"`
	Gender        string  `dynamodbav:"gender"`
	Height        float64 `dynamodbav:"height"`
	Weight        float64 `dynamodbav:"weight"`
	ActivityLevel string  `dynamodbav:"activityLevel"`
	Goal          string  `dynamodbav:"goal"`
	CreatedAt     string  `dynamodbav:"createdAt"`
}

// NewProfileItem builds the record of a profile
func NewProfileItem(p *entities.Profile) ProfileItem {
	return ProfileItem{
		Keys: Keys{
			PK:   ProfilePK(p.AccountID()),
			SK:   ProfileSK(p.AccountID()),
			Type: TypeProfile,
		},
		AccountID:     p.AccountID(),
		Name:          p.Name(),
		BirthDate:     p.BirthDate().Format(entities.BirthDateLayout),
		Gender:        string(p.Gender()),
		Height:        p.Height(),
		Weight:        p.Weight(),
		ActivityLevel: string(p.ActivityLevel()),
		Goal:          string(p.Goal()),
		CreatedAt:     formatTime(p.CreatedAt()),
	}
}

// MutableAttributes lists the attributes a profile update may change
func (i ProfileItem) MutableAttributes() map[string]interface{} {
	return map[string]interface{}{
		"name":          i.Name,
		"birthDate":     i.BirthDate,
		"gender":        i.Gender,
		"height":        i.Height,
		"weight":        i.Weight,
		"activityLevel": i.ActivityLevel,
		"goal":          i.Goal,
	}
}

// Marshal converts the record to a store item
func (i ProfileItem) Marshal() (abstractions.Item, error) {
	return marshal(TypeProfile, i)
}

// UnmarshalProfileItem decodes a stored profile record
func UnmarshalProfileItem(item abstractions.Item) (ProfileItem, error) {
	var out ProfileItem
	err := unmarshal(TypeProfile, item, &out,
		"accountId", "name", "birthDate", "gender", "height", "weight", "activityLevel", "goal", "createdAt")
	return out, err
}

// ToEntity rebuilds the profile
func (i ProfileItem) ToEntity() (*entities.Profile, error) {
	birthDate, err := time.Parse(entities.BirthDateLayout, i.BirthDate)
	if err != nil {
		return nil, pkgerrors.NewMalformedRecordError(TypeProfile, "birthDate").WithCause(err)
	}
	createdAt, err := parseTime(TypeProfile, "createdAt", i.CreatedAt)
	if err != nil {
		return nil, err
	}

	attrs := entities.ProfileAttributes{
		Name:          i.Name,
		BirthDate:     birthDate,
		Gender:        entities.Gender(i.Gender),
		Height:        i.Height,
		Weight:        i.Weight,
		ActivityLevel: entities.ActivityLevel(i.ActivityLevel),
		Goal:          entities.GoalType(i.Goal),
	}
	if !attrs.Gender.Valid() {
		return nil, pkgerrors.NewMalformedRecordError(TypeProfile, "gender")
	}
	if !attrs.ActivityLevel.Valid() {
		return nil, pkgerrors.NewMalformedRecordError(TypeProfile, "activityLevel")
	}
	if !attrs.Goal.Valid() {
		return nil, pkgerrors.NewMalformedRecordError(TypeProfile, "goal")
	}

	return entities.ReconstructProfile(i.AccountID, attrs, createdAt), nil
}

// ProfileFromItem decodes a stored item straight into a profile
func ProfileFromItem(item abstractions.Item) (*entities.Profile, error) {
	rec, err := UnmarshalProfileItem(item)
	if err != nil {
		return nil, err
	}
	return rec.ToEntity()
}
