package queries

import (
	"time"

	"foodiary/application/ports"
	"foodiary/domain/core/valueobjects"
	"foodiary/pkg/utils"
)

// GetMealQuery reads one meal of the calling account
type GetMealQuery struct {
	AccountID string `validate:"required"`
	MealID    string `validate:"required"`
}

// GetMealResult represents the result of GetMealQuery
type GetMealResult struct {
	Meal MealView `json:"meal"`
}

// ListMealsByDateQuery lists the processed meals of one calendar day
type ListMealsByDateQuery struct {
	AccountID string `validate:"required"`
	Date      string `validate:"required,datetime=2006-01-02"`
}

// ListMealsByDateResult represents the result of ListMealsByDateQuery
type ListMealsByDateResult struct {
	Meals []ports.MealSummary `json:"meals"`
}

// MealView is a full meal as returned to clients
type MealView struct {
	ID        string              `json:"id"`
	Status    string              `json:"status"`
	InputType string              `json:"inputType"`
	Name      string              `json:"name"`
	Icon      string              `json:"icon"`
	Foods     []valueobjects.Food `json:"foods"`
	CreatedAt time.Time           `json:"createdAt"`
}

func (q GetMealQuery) Validate() error         { return utils.ValidateStruct(q) }
func (q ListMealsByDateQuery) Validate() error { return utils.ValidateStruct(q) }
