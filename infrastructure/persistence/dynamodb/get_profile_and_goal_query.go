package dynamodb

import (
	"context"

	"foodiary/application/ports"
	"foodiary/infrastructure/persistence/abstractions"
	"foodiary/infrastructure/persistence/items"
	pkgerrors "foodiary/pkg/errors"

	"go.uber.org/zap"
)

var profileAndGoalProjection = []string{
	abstractions.AttrType, "accountId", "createdAt",
	"name", "birthDate", "gender", "height", "weight", "activityLevel", "goal",
	"calories", "proteins", "carbohydrates", "fats",
}

// GetProfileAndGoalQuery reads both account-scoped records in one query on
// the account partition and tells them apart by type
type GetProfileAndGoalQuery struct {
	store  abstractions.Store
	logger *zap.Logger
}

// NewGetProfileAndGoalQuery creates the query
func NewGetProfileAndGoalQuery(store abstractions.Store, logger *zap.Logger) *GetProfileAndGoalQuery {
	return &GetProfileAndGoalQuery{store: store, logger: logger}
}

var _ ports.ProfileAndGoalReader = (*GetProfileAndGoalQuery)(nil)

// Execute fails with NotFound unless both records exist
func (q *GetProfileAndGoalQuery) Execute(ctx context.Context, accountID string) (*ports.ProfileAndGoal, error) {
	found, err := q.store.Query(ctx, abstractions.QuerySpec{
		KeyCondition: abstractions.KeyCondition{
			PartitionName:  abstractions.AttrPK,
			PartitionValue: items.AccountPK(accountID),
			SortName:       abstractions.AttrSK,
			SortOperator:   abstractions.KeyBeginsWith,
			SortValue:      items.AccountSK(accountID) + "#",
		},
		Projection:  profileAndGoalProjection,
		ScanForward: true,
		Limit:       2,
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get profile and goal", err)
	}

	result := &ports.ProfileAndGoal{}
	for _, item := range found {
		switch items.TypeOf(item) {
		case items.TypeProfile:
			if result.Profile, err = items.ProfileFromItem(item); err != nil {
				return nil, err
			}
		case items.TypeGoal:
			if result.Goal, err = items.GoalFromItem(item); err != nil {
				return nil, err
			}
		}
	}

	if result.Profile == nil || result.Goal == nil {
		q.logger.Warn("account records incomplete",
			zap.String("account_id", accountID),
			zap.Bool("has_profile", result.Profile != nil),
			zap.Bool("has_goal", result.Goal != nil))
		return nil, pkgerrors.NewNotFoundError("Account")
	}
	return result, nil
}
