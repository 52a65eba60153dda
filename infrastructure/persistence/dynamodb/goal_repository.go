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

// GoalRepository stores the goal record of each account
type GoalRepository struct {
	store  abstractions.Store
	logger *zap.Logger
}

// NewGoalRepository creates a goal repository
func NewGoalRepository(store abstractions.Store, logger *zap.Logger) *GoalRepository {
	return &GoalRepository{store: store, logger: logger}
}

var _ ports.GoalRepository = (*GoalRepository)(nil)

func (r *GoalRepository) FindByAccountID(ctx context.Context, accountID string) (*entities.Goal, error) {
	item, err := r.store.Get(ctx, items.GoalKey(accountID))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get goal", err)
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("Goal")
	}
	return items.GoalFromItem(item)
}

func (r *GoalRepository) Create(ctx context.Context, goal *entities.Goal) error {
	item, err := items.NewGoalItem(goal).Marshal()
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return pkgerrors.NewDatabaseError("put goal", err)
	}
	return nil
}

// Save updates the macro targets; concurrent saves race and the last one wins
func (r *GoalRepository) Save(ctx context.Context, goal *entities.Goal) error {
	rec := items.NewGoalItem(goal)
	err := r.store.Update(ctx, rec.Key(), abstractions.UpdateSpec{Set: rec.MutableAttributes()})
	if errors.Is(err, abstractions.ErrConditionFailed) {
		return pkgerrors.NewNotFoundError("Goal")
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("update goal", err)
	}

	r.logger.Debug("goal saved", zap.String("account_id", goal.AccountID()))
	return nil
}

// PutInput returns the transactional write that creates the goal
func (r *GoalRepository) PutInput(goal *entities.Goal) (abstractions.TransactPut, error) {
	item, err := items.NewGoalItem(goal).Marshal()
	if err != nil {
		return abstractions.TransactPut{}, err
	}
	return abstractions.TransactPut{Item: item, IfNotExists: true}, nil
}
