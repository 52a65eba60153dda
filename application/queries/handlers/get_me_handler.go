package handlers

import (
	"context"

	"foodiary/application/ports"
	"foodiary/application/queries"
	"foodiary/domain/core/entities"
)

// GetMeHandler handles GetMeQuery
type GetMeHandler struct {
	reader ports.ProfileAndGoalReader
}

// NewGetMeHandler creates a new handler instance
func NewGetMeHandler(reader ports.ProfileAndGoalReader) *GetMeHandler {
	return &GetMeHandler{reader: reader}
}

func (h *GetMeHandler) Handle(ctx context.Context, q queries.GetMeQuery) (*queries.GetMeResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	pg, err := h.reader.Execute(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}

	p, g := pg.Profile, pg.Goal
	return &queries.GetMeResult{
		Profile: queries.ProfileView{
			Name:          p.Name(),
			BirthDate:     p.BirthDate().Format(entities.BirthDateLayout),
			Gender:        string(p.Gender()),
			Height:        p.Height(),
			Weight:        p.Weight(),
			ActivityLevel: string(p.ActivityLevel()),
			Goal:          string(p.Goal()),
		},
		Goal: queries.GoalView{
			Calories:      g.Calories(),
			Proteins:      g.Proteins(),
			Carbohydrates: g.Carbohydrates(),
			Fats:          g.Fats(),
		},
	}, nil
}
