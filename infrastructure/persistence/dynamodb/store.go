package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"foodiary/infrastructure/persistence/abstractions"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// API is the subset of the DynamoDB client the store uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements abstractions.Store over a single DynamoDB table
type Store struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewStore creates a store bound to one table
func NewStore(client API, tableName string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

var _ abstractions.Store = (*Store)(nil)

// Get reads one item with a strongly consistent read
func (s *Store) Get(ctx context.Context, key abstractions.Key) (abstractions.Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            keyAttributes(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s/%s: %w", key.PK, key.SK, err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}
	return result.Item, nil
}

// Put writes an item, replacing whatever was stored under its key
func (s *Store) Put(ctx context.Context, item abstractions.Item) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// PutIfAbsent writes an item only if its key is free
func (s *Store) PutIfAbsent(ctx context.Context, item abstractions.Item) error {
	cond, err := notExistsCondition()
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      cond.Condition(),
		ExpressionAttributeNames: cond.Names(),
	})
	if err != nil {
		return mapWriteError("put item", err)
	}
	return nil
}

// Update sets the given attributes on an existing item
func (s *Store) Update(ctx context.Context, key abstractions.Key, spec abstractions.UpdateSpec) error {
	if len(spec.Set) == 0 {
		return fmt.Errorf("update of %s/%s has no attributes", key.PK, key.SK)
	}

	var update expression.UpdateBuilder
	first := true
	for name, value := range spec.Set {
		if first {
			update = expression.Set(expression.Name(name), expression.Value(value))
			first = false
			continue
		}
		update = update.Set(expression.Name(name), expression.Value(value))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(abstractions.AttrPK))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       keyAttributes(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return mapWriteError("update item", err)
	}
	return nil
}

// Query reads one partition of the table or an index. Pages are followed
// until the partition is exhausted or Limit matching items were collected.
func (s *Store) Query(ctx context.Context, spec abstractions.QuerySpec) ([]abstractions.Item, error) {
	qb, err := NewQueryBuilder(s.tableName).FromSpec(spec)
	if err != nil {
		return nil, err
	}
	input, err := qb.Build()
	if err != nil {
		return nil, err
	}

	var items []abstractions.Item
	for {
		if spec.Limit > 0 {
			input.Limit = aws.Int32(spec.Limit - int32(len(items)))
		}

		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", spec.KeyCondition.PartitionValue, err)
		}
		items = append(items, result.Items...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		if spec.Limit > 0 && int32(len(items)) >= spec.Limit {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	s.logger.Debug("query completed",
		zap.String("partition", spec.KeyCondition.PartitionValue),
		zap.String("index", spec.IndexName),
		zap.Int("items", len(items)))

	return items, nil
}

// TransactWrite stores all puts in one TransactWriteItems call
func (s *Store) TransactWrite(ctx context.Context, puts []abstractions.TransactPut) error {
	if len(puts) == 0 {
		return nil
	}
	if len(puts) > abstractions.MaxTransactItems {
		return fmt.Errorf("%w: %d > %d", abstractions.ErrTooManyTransactItems, len(puts), abstractions.MaxTransactItems)
	}

	transactItems := make([]types.TransactWriteItem, 0, len(puts))
	for _, p := range puts {
		put := &types.Put{
			TableName: aws.String(s.tableName),
			Item:      p.Item,
		}
		if p.IfNotExists {
			cond, err := notExistsCondition()
			if err != nil {
				return err
			}
			put.ConditionExpression = cond.Condition()
			put.ExpressionAttributeNames = cond.Names()
		}
		transactItems = append(transactItems, types.TransactWriteItem{Put: put})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		s.logger.Warn("transaction rejected",
			zap.Int("items", len(transactItems)),
			zap.Error(err))
		return mapWriteError("write transaction", err)
	}

	s.logger.Debug("transaction committed", zap.Int("items", len(transactItems)))
	return nil
}

func keyAttributes(key abstractions.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		abstractions.AttrPK: &types.AttributeValueMemberS{Value: key.PK},
		abstractions.AttrSK: &types.AttributeValueMemberS{Value: key.SK},
	}
}

func notExistsCondition() (expression.Expression, error) {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(abstractions.AttrPK))).
		Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build condition expression: %w", err)
	}
	return expr, nil
}

// mapWriteError folds the condition failures DynamoDB reports into
// abstractions.ErrConditionFailed
func mapWriteError(op string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%w: %s: %w", abstractions.ErrConditionFailed, op, err)
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return fmt.Errorf("%w: %s: %w", abstractions.ErrConditionFailed, op, err)
			}
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
