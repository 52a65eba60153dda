package handlers

import (
	"context"

	"foodiary/application/commands"
	"foodiary/application/ports"

	"go.uber.org/zap"
)

// UpdateProfileHandler handles the UpdateProfileCommand
type UpdateProfileHandler struct {
	profiles ports.ProfileRepository
	logger   *zap.Logger
}

// NewUpdateProfileHandler creates a new handler instance
func NewUpdateProfileHandler(profiles ports.ProfileRepository, logger *zap.Logger) *UpdateProfileHandler {
	return &UpdateProfileHandler{profiles: profiles, logger: logger}
}

// Handle replaces the mutable profile attributes. The goal is not
// recomputed; clients update it explicitly.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd commands.UpdateProfileCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	attrs, err := profileAttributes(cmd.Name, cmd.BirthDate, cmd.Gender, cmd.Height, cmd.Weight, cmd.ActivityLevel, cmd.Goal)
	if err != nil {
		return err
	}

	profile, err := h.profiles.FindByAccountID(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	if err := profile.Update(attrs); err != nil {
		return err
	}
	return h.profiles.Save(ctx, profile)
}
