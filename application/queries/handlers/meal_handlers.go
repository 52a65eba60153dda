package handlers

import (
	"context"

	"foodiary/application/ports"
	"foodiary/application/queries"
	"foodiary/pkg/utils"
)

// GetMealHandler handles GetMealQuery
type GetMealHandler struct {
	meals ports.MealRepository
}

// NewGetMealHandler creates a new handler instance
func NewGetMealHandler(meals ports.MealRepository) *GetMealHandler {
	return &GetMealHandler{meals: meals}
}

func (h *GetMealHandler) Handle(ctx context.Context, q queries.GetMealQuery) (*queries.GetMealResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	meal, err := h.meals.FindByID(ctx, q.AccountID, q.MealID)
	if err != nil {
		return nil, err
	}

	return &queries.GetMealResult{
		Meal: queries.MealView{
			ID:        meal.ID(),
			Status:    string(meal.Status()),
			InputType: string(meal.InputType()),
			Name:      meal.Name(),
			Icon:      meal.Icon(),
			Foods:     meal.Foods(),
			CreatedAt: meal.CreatedAt(),
		},
	}, nil
}

// ListMealsByDateHandler handles ListMealsByDateQuery
type ListMealsByDateHandler struct {
	reader ports.MealsByDateReader
}

// NewListMealsByDateHandler creates a new handler instance
func NewListMealsByDateHandler(reader ports.MealsByDateReader) *ListMealsByDateHandler {
	return &ListMealsByDateHandler{reader: reader}
}

func (h *ListMealsByDateHandler) Handle(ctx context.Context, q queries.ListMealsByDateQuery) (*queries.ListMealsByDateResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	date, err := utils.ParseDate(q.Date)
	if err != nil {
		return nil, err
	}

	meals, err := h.reader.Execute(ctx, q.AccountID, date)
	if err != nil {
		return nil, err
	}
	return &queries.ListMealsByDateResult{Meals: meals}, nil
}
