package handlers

import (
	"net/http"

	"foodiary/application/commands"
	"foodiary/application/commands/bus"
	"foodiary/pkg/common"
	pkgerrors "foodiary/pkg/errors"

	"go.uber.org/zap"
)

// AuthHandler handles the public /auth routes
type AuthHandler struct {
	commandBus *bus.CommandBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	commandBus *bus.CommandBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		commandBus: commandBus,
		errors:     errs,
		logger:     logger,
	}
}

// SignUp handles POST /auth/sign-up
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SignUpCommand
	if err := common.ParseJSONBody(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	tokens, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, tokens)
}

// SignIn handles POST /auth/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SignInCommand
	if err := common.ParseJSONBody(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	tokens, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, tokens)
}

// RefreshToken handles POST /auth/refresh-token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RefreshTokenCommand
	if err := common.ParseJSONBody(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	tokens, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, tokens)
}

// ForgotPassword handles POST /auth/forgot-password. The answer is the same
// whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var cmd commands.ForgotPasswordCommand
	if err := common.ParseJSONBody(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var cmd commands.ResetPasswordCommand
	if err := common.ParseJSONBody(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
