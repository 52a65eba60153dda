package dynamodb

import (
	"context"
	"time"

	"foodiary/application/ports"
	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
	"foodiary/infrastructure/persistence/items"
	pkgerrors "foodiary/pkg/errors"
)

// ListMealsByDateQuery reads the processed meals of one account and UTC day
// from GSI1, newest first
type ListMealsByDateQuery struct {
	store     abstractions.Store
	indexName string
}

// NewListMealsByDateQuery creates the query
func NewListMealsByDateQuery(store abstractions.Store, indexName string) *ListMealsByDateQuery {
	return &ListMealsByDateQuery{store: store, indexName: indexName}
}

var _ ports.MealsByDateReader = (*ListMealsByDateQuery)(nil)

// Execute lists only meals whose processing succeeded
func (q *ListMealsByDateQuery) Execute(ctx context.Context, accountID string, date time.Time) ([]ports.MealSummary, error) {
	found, err := q.store.Query(ctx, abstractions.QuerySpec{
		IndexName: q.indexName,
		KeyCondition: abstractions.KeyCondition{
			PartitionName:  abstractions.AttrGSI1PK,
			PartitionValue: items.MealGSI1PK(accountID, date),
		},
		Filters: []abstractions.Filter{
			{Field: "status", Operator: abstractions.OpEqual, Value: string(entities.MealStatusSuccess)},
		},
		Projection:  items.MealSummaryProjection,
		ScanForward: false,
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list meals by date", err)
	}

	meals := make([]ports.MealSummary, 0, len(found))
	for _, item := range found {
		s, err := items.MealSummaryFromItem(item)
		if err != nil {
			return nil, err
		}
		meals = append(meals, ports.MealSummary{
			ID:        s.ID,
			Name:      s.Name,
			Icon:      s.Icon,
			Foods:     s.Foods,
			CreatedAt: s.CreatedAt,
		})
	}
	return meals, nil
}
