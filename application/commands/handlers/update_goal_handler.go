package handlers

import (
	"context"

	"foodiary/application/commands"
	"foodiary/application/ports"
	"foodiary/domain/core/entities"

	"go.uber.org/zap"
)

// UpdateGoalHandler handles the UpdateGoalCommand
type UpdateGoalHandler struct {
	goals  ports.GoalRepository
	logger *zap.Logger
}

// NewUpdateGoalHandler creates a new handler instance
func NewUpdateGoalHandler(goals ports.GoalRepository, logger *zap.Logger) *UpdateGoalHandler {
	return &UpdateGoalHandler{goals: goals, logger: logger}
}

func (h *UpdateGoalHandler) Handle(ctx context.Context, cmd commands.UpdateGoalCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	goal, err := h.goals.FindByAccountID(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	err = goal.Update(entities.Macros{
		Calories:      cmd.Calories,
		Proteins:      cmd.Proteins,
		Carbohydrates: cmd.Carbohydrates,
		Fats:          cmd.Fats,
	})
	if err != nil {
		return err
	}
	return h.goals.Save(ctx, goal)
}
