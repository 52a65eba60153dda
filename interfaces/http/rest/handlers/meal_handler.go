package handlers

import (
	"net/http"

	"foodiary/application/commands"
	"foodiary/application/commands/bus"
	"foodiary/application/queries"
	querybus "foodiary/application/queries/bus"
	"foodiary/pkg/common"
	pkgerrors "foodiary/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MealHandler handles the /meals routes
type MealHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewMealHandler creates a new meal handler
func NewMealHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *MealHandler {
	return &MealHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
	}
}

// CreateMeal handles POST /meals
func (h *MealHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.GetAccountID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var cmd commands.CreateMealCommand
	if err := common.ParseJSONBody(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd.AccountID = accountID

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, result)
}

// GetMeal handles GET /meals/{mealID}
func (h *MealHandler) GetMeal(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.GetAccountID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetMealQuery{
		AccountID: accountID,
		MealID:    chi.URLParam(r, "mealID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ListMeals handles GET /meals?date=yyyy-mm-dd
func (h *MealHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.GetAccountID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListMealsByDateQuery{
		AccountID: accountID,
		Date:      r.URL.Query().Get("date"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
