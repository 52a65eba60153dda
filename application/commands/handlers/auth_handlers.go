package handlers

import (
	"context"
	"errors"

	"foodiary/application/commands"
	"foodiary/application/ports"
	"foodiary/domain/core/entities"
	pkgerrors "foodiary/pkg/errors"

	"go.uber.org/zap"
)

// AuthHandler handles the credential commands that only involve the
// identity provider
type AuthHandler struct {
	auth   ports.AuthGateway
	logger *zap.Logger
}

// NewAuthHandler creates a new handler instance
func NewAuthHandler(auth ports.AuthGateway, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// SignIn exchanges credentials for tokens
func (h *AuthHandler) SignIn(ctx context.Context, cmd commands.SignInCommand) (*ports.AuthTokens, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tokens, err := h.auth.SignIn(ctx, entities.NormalizeEmail(cmd.Email), cmd.Password)
	if err != nil {
		if errors.Is(err, ports.ErrInvalidCredentials) {
			return nil, pkgerrors.NewUnauthorizedError("invalid credentials").
				WithCode(pkgerrors.CodeInvalidCredentials)
		}
		return nil, err
	}
	return &tokens, nil
}

// RefreshToken exchanges a refresh token for new tokens
func (h *AuthHandler) RefreshToken(ctx context.Context, cmd commands.RefreshTokenCommand) (*ports.AuthTokens, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tokens, err := h.auth.RefreshToken(ctx, cmd.RefreshToken)
	if err != nil {
		if errors.Is(err, ports.ErrInvalidRefreshToken) {
			return nil, pkgerrors.NewUnauthorizedError("invalid refresh token").
				WithCode(pkgerrors.CodeInvalidRefreshToken)
		}
		return nil, err
	}
	return &tokens, nil
}

// ForgotPassword never reveals whether the email exists: provider errors are
// logged and swallowed
func (h *AuthHandler) ForgotPassword(ctx context.Context, cmd commands.ForgotPasswordCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := h.auth.ForgotPassword(ctx, entities.NormalizeEmail(cmd.Email)); err != nil {
		h.logger.Warn("forgot password request failed", zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password using the code sent by ForgotPassword
func (h *AuthHandler) ResetPassword(ctx context.Context, cmd commands.ResetPasswordCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	err := h.auth.ConfirmForgotPassword(ctx, entities.NormalizeEmail(cmd.Email), cmd.Code, cmd.Password)
	if err != nil {
		h.logger.Info("password reset rejected", zap.Error(err))
		return pkgerrors.NewValidationError("failed to reset password, try again").
			WithCode(pkgerrors.CodeInvalidResetPassword).
			WithCause(err)
	}
	return nil
}
