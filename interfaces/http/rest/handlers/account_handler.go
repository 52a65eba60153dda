package handlers

import (
	"net/http"

	"foodiary/application/commands"
	"foodiary/application/commands/bus"
	"foodiary/application/queries"
	querybus "foodiary/application/queries/bus"
	"foodiary/pkg/common"
	pkgerrors "foodiary/pkg/errors"

	"go.uber.org/zap"
)

// AccountHandler handles the private routes about the caller's own account
type AccountHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *AccountHandler {
	return &AccountHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
	}
}

// GetMe handles GET /me
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.GetAccountID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetMeQuery{AccountID: accountID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// UpdateProfile handles PUT /profiles
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.GetAccountID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var cmd commands.UpdateProfileCommand
	if err := common.ParseJSONBody(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd.AccountID = accountID

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// UpdateGoal handles PUT /goals
func (h *AccountHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.GetAccountID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var cmd commands.UpdateGoalCommand
	if err := common.ParseJSONBody(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd.AccountID = accountID

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
