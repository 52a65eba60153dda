package dynamodb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"foodiary/infrastructure/persistence/abstractions"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *mockAPI) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}

const testTable = "foodiary"

func attrS(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func TestStore_GetUsesConsistentRead(t *testing.T) {
	// Arrange
	api := new(mockAPI)
	store := NewStore(api, testTable, zap.NewNop())
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return aws.ToString(in.TableName) == testTable &&
			aws.ToBool(in.ConsistentRead) &&
			in.Key[abstractions.AttrPK].(*types.AttributeValueMemberS).Value == "A"
	})).Return(&dynamodb.GetItemOutput{}, nil)

	// Act
	item, err := store.Get(context.Background(), abstractions.Key{PK: "A", SK: "B"})

	// Assert
	require.NoError(t, err)
	assert.Nil(t, item)
	api.AssertExpectations(t)
}

func TestStore_PutIfAbsentMapsConditionFailure(t *testing.T) {
	// Arrange
	api := new(mockAPI)
	store := NewStore(api, testTable, zap.NewNop())
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.ConditionExpression != nil
	})).Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")})

	// Act
	err := store.PutIfAbsent(context.Background(), abstractions.Item{
		abstractions.AttrPK: attrS("A"),
		abstractions.AttrSK: attrS("B"),
	})

	// Assert
	assert.ErrorIs(t, err, abstractions.ErrConditionFailed)
	api.AssertExpectations(t)
}

func TestStore_PutIsUnconditional(t *testing.T) {
	// Arrange
	api := new(mockAPI)
	store := NewStore(api, testTable, zap.NewNop())
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.ConditionExpression == nil
	})).Return(&dynamodb.PutItemOutput{}, nil)

	// Act
	err := store.Put(context.Background(), abstractions.Item{abstractions.AttrPK: attrS("A")})

	// Assert
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestStore_UpdateRequiresExistingItem(t *testing.T) {
	// Arrange
	api := new(mockAPI)
	store := NewStore(api, testTable, zap.NewNop())
	var captured *dynamodb.UpdateItemInput
	api.On("UpdateItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*dynamodb.UpdateItemInput) }).
		Return(nil, &types.ConditionalCheckFailedException{})

	// Act
	err := store.Update(context.Background(), abstractions.Key{PK: "A", SK: "B"}, abstractions.UpdateSpec{
		Set: map[string]interface{}{"name": "x"},
	})

	// Assert
	assert.ErrorIs(t, err, abstractions.ErrConditionFailed)
	require.NotNil(t, captured)
	assert.Contains(t, aws.ToString(captured.ConditionExpression), "attribute_exists")
	assert.Contains(t, aws.ToString(captured.UpdateExpression), "SET")
}

func TestStore_UpdateWithoutAttributes(t *testing.T) {
	// Arrange
	store := NewStore(new(mockAPI), testTable, zap.NewNop())

	// Act
	err := store.Update(context.Background(), abstractions.Key{PK: "A", SK: "B"}, abstractions.UpdateSpec{})

	// Assert
	assert.Error(t, err)
}

func TestStore_QueryFollowsPagesUntilLimit(t *testing.T) {
	// Arrange
	api := new(mockAPI)
	store := NewStore(api, testTable, zap.NewNop())
	page1 := &dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{{"id": attrS("1")}},
		LastEvaluatedKey: map[string]types.AttributeValue{abstractions.AttrPK: attrS("P")},
	}
	page2 := &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{{"id": attrS("2")}},
	}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(page1, nil).Once()
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil && aws.ToInt32(in.Limit) == 2
	})).Return(page2, nil).Once()

	// Act
	got, err := store.Query(context.Background(), abstractions.QuerySpec{
		IndexName: "GSI1",
		KeyCondition: abstractions.KeyCondition{
			PartitionName:  abstractions.AttrGSI1PK,
			PartitionValue: "P",
		},
		Limit: 3,
	})

	// Assert
	require.NoError(t, err)
	assert.Len(t, got, 2)
	api.AssertExpectations(t)
}

func TestStore_QueryPartitionOnly(t *testing.T) {
	tests := []struct {
		name        string
		scanForward bool
	}{
		{name: "ascending", scanForward: true},
		{name: "descending", scanForward: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			api := new(mockAPI)
			store := NewStore(api, testTable, zap.NewNop())
			api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
				return in.IndexName == nil &&
					!strings.Contains(aws.ToString(in.KeyConditionExpression), "AND") &&
					aws.ToInt32(in.Limit) == 1 &&
					aws.ToBool(in.ScanIndexForward) == tt.scanForward
			})).Return(&dynamodb.QueryOutput{
				Items:            []map[string]types.AttributeValue{{"id": attrS("1")}},
				LastEvaluatedKey: map[string]types.AttributeValue{abstractions.AttrPK: attrS("P")},
			}, nil).Once()

			// Act
			got, err := store.Query(context.Background(), abstractions.QuerySpec{
				KeyCondition: abstractions.KeyCondition{
					PartitionName:  abstractions.AttrPK,
					PartitionValue: "P",
				},
				ScanForward: tt.scanForward,
				Limit:       1,
			})

			// Assert
			require.NoError(t, err)
			assert.Len(t, got, 1)
			api.AssertExpectations(t)
			api.AssertNumberOfCalls(t, "Query", 1)
		})
	}
}

func TestStore_TransactWriteMapsCancellation(t *testing.T) {
	ctx := context.Background()
	puts := []abstractions.TransactPut{
		{Item: abstractions.Item{abstractions.AttrPK: attrS("A"), abstractions.AttrSK: attrS("1")}, IfNotExists: true},
		{Item: abstractions.Item{abstractions.AttrPK: attrS("A"), abstractions.AttrSK: attrS("2")}},
	}

	t.Run("conditional check becomes ErrConditionFailed", func(t *testing.T) {
		// Arrange
		api := new(mockAPI)
		store := NewStore(api, testTable, zap.NewNop())
		api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 2 &&
				in.TransactItems[0].Put.ConditionExpression != nil &&
				in.TransactItems[1].Put.ConditionExpression == nil
		})).Return(nil, &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("ConditionalCheckFailed")},
				{Code: aws.String("None")},
			},
		})

		// Act
		err := store.TransactWrite(ctx, puts)

		// Assert
		assert.ErrorIs(t, err, abstractions.ErrConditionFailed)
		api.AssertExpectations(t)
	})

	t.Run("other cancellations pass through", func(t *testing.T) {
		// Arrange
		api := new(mockAPI)
		store := NewStore(api, testTable, zap.NewNop())
		api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{{Code: aws.String("ThrottlingError")}},
		})

		// Act
		err := store.TransactWrite(ctx, puts)

		// Assert
		require.Error(t, err)
		assert.False(t, errors.Is(err, abstractions.ErrConditionFailed))
		var tce *types.TransactionCanceledException
		assert.ErrorAs(t, err, &tce)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		// Arrange
		api := new(mockAPI)
		store := NewStore(api, testTable, zap.NewNop())

		// Act
		err := store.TransactWrite(ctx, nil)

		// Assert
		require.NoError(t, err)
		api.AssertNotCalled(t, "TransactWriteItems", mock.Anything, mock.Anything)
	})
}

func TestQueryBuilder_Build(t *testing.T) {
	// Arrange
	qb, err := NewQueryBuilder(testTable).FromSpec(abstractions.QuerySpec{
		IndexName: "GSI1",
		KeyCondition: abstractions.KeyCondition{
			PartitionName:  abstractions.AttrGSI1PK,
			PartitionValue: "MEALS#acc-1#2024-05-09",
			SortName:       abstractions.AttrGSI1SK,
			SortOperator:   abstractions.KeyBeginsWith,
			SortValue:      "MEAL#",
		},
		Filters:    []abstractions.Filter{{Field: "status", Operator: abstractions.OpEqual, Value: "SUCCESS"}},
		Projection: []string{"id", "name"},
	})
	require.NoError(t, err)

	// Act
	input, err := qb.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "GSI1", aws.ToString(input.IndexName))
	assert.False(t, aws.ToBool(input.ScanIndexForward))
	assert.Contains(t, aws.ToString(input.KeyConditionExpression), "begins_with")
	assert.NotNil(t, input.FilterExpression)
	assert.NotNil(t, input.ProjectionExpression)
	assert.Nil(t, input.Limit)
}

func TestQueryBuilder_RejectsUnknownOperators(t *testing.T) {
	// Act
	_, err := NewQueryBuilder(testTable).FromSpec(abstractions.QuerySpec{
		KeyCondition: abstractions.KeyCondition{
			PartitionName:  abstractions.AttrPK,
			PartitionValue: "P",
			SortName:       abstractions.AttrSK,
			SortOperator:   "contains",
			SortValue:      "x",
		},
	})

	// Assert
	assert.Error(t, err)
}
