package dynamodb

import (
	"context"
	"errors"

	"foodiary/application/ports"
	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
	"foodiary/infrastructure/persistence/items"
	pkgerrors "foodiary/pkg/errors"

	"go.uber.org/zap"
)

// MealRepository stores meal records
type MealRepository struct {
	store  abstractions.Store
	logger *zap.Logger
}

// NewMealRepository creates a meal repository
func NewMealRepository(store abstractions.Store, logger *zap.Logger) *MealRepository {
	return &MealRepository{store: store, logger: logger}
}

var _ ports.MealRepository = (*MealRepository)(nil)

// FindByID reports a meal of another account as not found
func (r *MealRepository) FindByID(ctx context.Context, accountID, mealID string) (*entities.Meal, error) {
	item, err := r.store.Get(ctx, items.MealKey(mealID))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get meal", err)
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("Meal")
	}

	meal, err := items.MealFromItem(item)
	if err != nil {
		return nil, err
	}
	if meal.AccountID() != accountID {
		r.logger.Warn("meal requested by another account",
			zap.String("meal_id", mealID),
			zap.String("account_id", accountID))
		return nil, pkgerrors.NewNotFoundError("Meal")
	}
	return meal, nil
}

func (r *MealRepository) Create(ctx context.Context, meal *entities.Meal) error {
	item, err := items.NewMealItem(meal).Marshal()
	if err != nil {
		return err
	}
	if err := r.store.PutIfAbsent(ctx, item); err != nil {
		if errors.Is(err, abstractions.ErrConditionFailed) {
			return pkgerrors.NewConflictError("meal already exists")
		}
		return pkgerrors.NewDatabaseError("put meal", err)
	}

	r.logger.Debug("meal created",
		zap.String("meal_id", meal.ID()),
		zap.String("account_id", meal.AccountID()),
		zap.String("input_type", string(meal.InputType())))
	return nil
}

// Save writes status, attempts and the recognised content of a meal
func (r *MealRepository) Save(ctx context.Context, meal *entities.Meal) error {
	rec := items.NewMealItem(meal)
	err := r.store.Update(ctx, rec.Key(), abstractions.UpdateSpec{Set: rec.MutableAttributes()})
	if errors.Is(err, abstractions.ErrConditionFailed) {
		return pkgerrors.NewNotFoundError("Meal")
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("update meal", err)
	}

	r.logger.Debug("meal saved",
		zap.String("meal_id", meal.ID()),
		zap.String("status", string(meal.Status())))
	return nil
}
