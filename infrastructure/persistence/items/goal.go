package items

import (
	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
)

// GoalPK is the partition key of a goal record; goals live in their
// account's partition
func GoalPK(accountID string) string { return "ACCOUNT#" + accountID }

// GoalSK is the sort key of a goal record
func GoalSK(accountID string) string { return "ACCOUNT#" + accountID + "#GOAL" }

// GoalKey addresses the goal record of accountID
func GoalKey(accountID string) abstractions.Key {
	return abstractions.Key{PK: GoalPK(accountID), SK: GoalSK(accountID)}
}

// GoalItem is the stored form of a goal
type GoalItem struct {
	Keys
	AccountID     string  `dynamodbav:"accountId"`
	Calories      float64 `dynamodbav:"calories"`
	Proteins      float64 `dynamodbav:"proteins"`
	Carbohydrates float64 `dynamodbav:"carbohydrates"`
	Fats          float64 `dynamodbav:"fats"`
	CreatedAt     string  `dynamodbav:"createdAt"`
}

// NewGoalItem builds the record of a goal
func NewGoalItem(g *entities.Goal) GoalItem {
	m := g.Macros()
	return GoalItem{
		Keys: Keys{
			PK:   GoalPK(g.AccountID()),
			SK:   GoalSK(g.AccountID()),
			Type: TypeGoal,
		},
		AccountID:     g.AccountID(),
		Calories:      m.Calories,
		Proteins:      m.Proteins,
		Carbohydrates: m.Carbohydrates,
		Fats:          m.Fats,
		CreatedAt:     formatTime(g.CreatedAt()),
	}
}

// MutableAttributes lists the attributes a goal update may change
func (i GoalItem) MutableAttributes() map[string]interface{} {
	return map[string]interface{}{
		"calories":      i.Calories,
		"proteins":      i.Proteins,
		"carbohydrates": i.Carbohydrates,
		"fats":          i.Fats,
	}
}

// Marshal converts the record to a store item
func (i GoalItem) Marshal() (abstractions.Item, error) {
	return marshal(TypeGoal, i)
}

// UnmarshalGoalItem decodes a stored goal record
func UnmarshalGoalItem(item abstractions.Item) (GoalItem, error) {
	var out GoalItem
	err := unmarshal(TypeGoal, item, &out,
		"accountId", "calories", "proteins", "carbohydrates", "fats", "createdAt")
	return out, err
}

// ToEntity rebuilds the goal
func (i GoalItem) ToEntity() (*entities.Goal, error) {
	createdAt, err := parseTime(TypeGoal, "createdAt", i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructGoal(i.AccountID, entities.Macros{
		Calories:      i.Calories,
		Proteins:      i.Proteins,
		Carbohydrates: i.Carbohydrates,
		Fats:          i.Fats,
	}, createdAt), nil
}

// GoalFromItem decodes a stored item straight into a goal
func GoalFromItem(item abstractions.Item) (*entities.Goal, error) {
	rec, err := UnmarshalGoalItem(item)
	if err != nil {
		return nil, err
	}
	return rec.ToEntity()
}
