package items

import (
	"time"

	"foodiary/domain/core/entities"
	"foodiary/domain/core/valueobjects"
	"foodiary/infrastructure/persistence/abstractions"
	pkgerrors "foodiary/pkg/errors"
)

// mealDateLayout is the zero-padded calendar day embedded in the index key
const mealDateLayout = "2006-01-02"

// MealPK is the partition key of a meal record
func MealPK(mealID string) string { return "MEAL#" + mealID }

// MealSK is the sort key of a meal record
func MealSK(mealID string) string { return "MEAL#" + mealID }

// MealGSI1PK buckets an account's meals by the UTC calendar day they were
// created on
func MealGSI1PK(accountID string, createdAt time.Time) string {
	return "MEALS#" + accountID + "#" + createdAt.UTC().Format(mealDateLayout)
}

// MealGSI1SK is the index sort key of a meal record
func MealGSI1SK(mealID string) string { return "MEAL#" + mealID }

// MealKey addresses the meal record of mealID
func MealKey(mealID string) abstractions.Key {
	return abstractions.Key{PK: MealPK(mealID), SK: MealSK(mealID)}
}

// MealItem is the stored form of a meal
type MealItem struct {
	Keys
	ID           string              `dynamodbav:"id"`
	AccountID    string              `dynamodbav:"accountId"`
	Status       string              `dynamodbav:"status"`
	Attempts     int                 `dynamodbav:"attempts"`
	InputType    string              `dynamodbav:"inputType"`
	InputFileKey string              `dynamodbav:"inputFileKey"`
	Name         string              `dynamodbav:"name"`
	Icon         string              `dynamodbav:"icon"`
	Foods        []valueobjects.Food `dynamodbav:"foods"`
	CreatedAt    string              `dynamodbav:"createdAt"`
}

// NewMealItem builds the record of a meal
func NewMealItem(m *entities.Meal) MealItem {
	return MealItem{
		Keys: Keys{
			PK:     MealPK(m.ID()),
			SK:     MealSK(m.ID()),
			GSI1PK: MealGSI1PK(m.AccountID(), m.CreatedAt()),
			GSI1SK: MealGSI1SK(m.ID()),
			Type:   TypeMeal,
		},
		ID:           m.ID(),
		AccountID:    m.AccountID(),
		Status:       string(m.Status()),
		Attempts:     m.Attempts(),
		InputType:    string(m.InputType()),
		InputFileKey: m.InputFileKey(),
		Name:         m.Name(),
		Icon:         m.Icon(),
		Foods:        m.Foods(),
		CreatedAt:    formatTime(m.CreatedAt()),
	}
}

// MutableAttributes lists the attributes the processing pipeline may change
func (i MealItem) MutableAttributes() map[string]interface{} {
	foods := i.Foods
	if foods == nil {
		foods = []valueobjects.Food{}
	}
	return map[string]interface{}{
		"status":   i.Status,
		"attempts": i.Attempts,
		"name":     i.Name,
		"icon":     i.Icon,
		"foods":    foods,
	}
}

// Marshal converts the record to a store item
func (i MealItem) Marshal() (abstractions.Item, error) {
	return marshal(TypeMeal, i)
}

// UnmarshalMealItem decodes a stored meal record
func UnmarshalMealItem(item abstractions.Item) (MealItem, error) {
	var out MealItem
	err := unmarshal(TypeMeal, item, &out,
		"id", "accountId", "status", "inputType", "inputFileKey", "createdAt")
	return out, err
}

// ToEntity rebuilds the meal
func (i MealItem) ToEntity() (*entities.Meal, error) {
	createdAt, err := parseTime(TypeMeal, "createdAt", i.CreatedAt)
	if err != nil {
		return nil, err
	}
	status := entities.MealStatus(i.Status)
	if !status.Valid() {
		return nil, pkgerrors.NewMalformedRecordError(TypeMeal, "status")
	}
	inputType := entities.InputType(i.InputType)
	if !inputType.Valid() {
		return nil, pkgerrors.NewMalformedRecordError(TypeMeal, "inputType")
	}

	return entities.ReconstructMeal(entities.MealAttributes{
		ID:           i.ID,
		AccountID:    i.AccountID,
		Status:       status,
		Attempts:     i.Attempts,
		InputType:    inputType,
		InputFileKey: i.InputFileKey,
		Name:         i.Name,
		Icon:         i.Icon,
		Foods:        i.Foods,
		CreatedAt:    createdAt,
	}), nil
}

// MealFromItem decodes a stored item straight into a meal
func MealFromItem(item abstractions.Item) (*entities.Meal, error) {
	rec, err := UnmarshalMealItem(item)
	if err != nil {
		return nil, err
	}
	return rec.ToEntity()
}

// MealSummary is the projected read model of a meal in a day listing
type MealSummary struct {
	ID        string              `dynamodbav:"id" json:"id"`
	Name      string              `dynamodbav:"name" json:"name"`
	Icon      string              `dynamodbav:"icon" json:"icon"`
	Foods     []valueobjects.Food `dynamodbav:"foods" json:"foods"`
	CreatedAt time.Time           `dynamodbav:"-" json:"createdAt"`
}

// MealSummaryProjection is the attribute set a day listing reads
var MealSummaryProjection = []string{"id", "name", "icon", "foods", "createdAt"}

// MealSummaryFromItem decodes a projected meal record
func MealSummaryFromItem(item abstractions.Item) (MealSummary, error) {
	var raw struct {
		MealSummary
		CreatedAt string `dynamodbav:"createdAt"`
	}
	if err := unmarshal(TypeMeal, item, &raw, "id", "createdAt"); err != nil {
		return MealSummary{}, err
	}
	createdAt, err := parseTime(TypeMeal, "createdAt", raw.CreatedAt)
	if err != nil {
		return MealSummary{}, err
	}

	out := raw.MealSummary
	out.CreatedAt = createdAt
	if out.Foods == nil {
		out.Foods = []valueobjects.Food{}
	}
	return out, nil
}
