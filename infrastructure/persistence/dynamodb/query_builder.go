package dynamodb

import (
	"fmt"

	"foodiary/infrastructure/persistence/abstractions"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// QueryBuilder provides a fluent interface for building DynamoDB queries
type QueryBuilder struct {
	tableName        string
	indexName        string
	keyCondition     *expression.KeyConditionBuilder
	filterConditions []expression.ConditionBuilder
	projections      []string
	limit            int32
	scanForward      bool
}

// NewQueryBuilder creates a new query builder; queries run in ascending
// sort-key order unless told otherwise
func NewQueryBuilder(tableName string) *QueryBuilder {
	return &QueryBuilder{
		tableName:   tableName,
		scanForward: true,
	}
}

// FromSpec loads a store-level query description into the builder
func (qb *QueryBuilder) FromSpec(spec abstractions.QuerySpec) (*QueryBuilder, error) {
	if spec.KeyCondition.PartitionName == "" {
		return nil, fmt.Errorf("query requires a partition key name")
	}

	qb.WithIndex(spec.IndexName)
	qb.WithPartitionKey(spec.KeyCondition.PartitionName, spec.KeyCondition.PartitionValue)
	if spec.KeyCondition.HasSortCondition() {
		if err := qb.withSortCondition(spec.KeyCondition); err != nil {
			return nil, err
		}
	}
	for _, f := range spec.Filters {
		if err := qb.WithFilter(f); err != nil {
			return nil, err
		}
	}
	qb.WithProjection(spec.Projection...)
	qb.WithScanForward(spec.ScanForward)
	qb.WithLimit(spec.Limit)
	return qb, nil
}

// WithIndex sets the index to query; empty means the base table
func (qb *QueryBuilder) WithIndex(indexName string) *QueryBuilder {
	qb.indexName = indexName
	return qb
}

// WithPartitionKey sets the partition key condition
func (qb *QueryBuilder) WithPartitionKey(keyName string, value string) *QueryBuilder {
	keyCond := expression.Key(keyName).Equal(expression.Value(value))
	qb.keyCondition = &keyCond
	return qb
}

// WithSortKeyPrefix adds a begins_with condition on the sort key
func (qb *QueryBuilder) WithSortKeyPrefix(keyName string, prefix string) *QueryBuilder {
	qb.andKey(expression.Key(keyName).BeginsWith(prefix))
	return qb
}

// WithSortKeyBetween adds a between condition on the sort key
func (qb *QueryBuilder) WithSortKeyBetween(keyName string, start, end string) *QueryBuilder {
	qb.andKey(expression.Key(keyName).Between(expression.Value(start), expression.Value(end)))
	return qb
}

func (qb *QueryBuilder) withSortCondition(kc abstractions.KeyCondition) error {
	name := expression.Key(kc.SortName)
	value := expression.Value(kc.SortValue)

	switch kc.SortOperator {
	case abstractions.KeyEqual:
		qb.andKey(name.Equal(value))
	case abstractions.KeyBeginsWith:
		qb.WithSortKeyPrefix(kc.SortName, kc.SortValue)
	case abstractions.KeyBetween:
		qb.WithSortKeyBetween(kc.SortName, kc.SortValue, kc.SortValueTo)
	case abstractions.KeyLessThan:
		qb.andKey(name.LessThan(value))
	case abstractions.KeyLessThanOrEqual:
		qb.andKey(name.LessThanEqual(value))
	case abstractions.KeyGreaterThan:
		qb.andKey(name.GreaterThan(value))
	case abstractions.KeyGreaterThanOrEqual:
		qb.andKey(name.GreaterThanEqual(value))
	default:
		return fmt.Errorf("unsupported sort key operator %q", kc.SortOperator)
	}
	return nil
}

func (qb *QueryBuilder) andKey(cond expression.KeyConditionBuilder) {
	if qb.keyCondition == nil {
		qb.keyCondition = &cond
		return
	}
	combined := qb.keyCondition.And(cond)
	qb.keyCondition = &combined
}

// WithFilter adds a filter on a non-key attribute
func (qb *QueryBuilder) WithFilter(f abstractions.Filter) error {
	name := expression.Name(f.Field)
	value := expression.Value(f.Value)

	switch f.Operator {
	case abstractions.OpEqual, "":
		qb.filterConditions = append(qb.filterConditions, name.Equal(value))
	case abstractions.OpNotEqual:
		qb.filterConditions = append(qb.filterConditions, name.NotEqual(value))
	default:
		return fmt.Errorf("unsupported filter operator %q", f.Operator)
	}
	return nil
}

// WithProjection sets which attributes to return
func (qb *QueryBuilder) WithProjection(attributes ...string) *QueryBuilder {
	qb.projections = append(qb.projections, attributes...)
	return qb
}

// WithLimit sets the maximum number of items to evaluate per page
func (qb *QueryBuilder) WithLimit(limit int32) *QueryBuilder {
	qb.limit = limit
	return qb
}

// WithScanForward sets the sort-key traversal direction
func (qb *QueryBuilder) WithScanForward(forward bool) *QueryBuilder {
	qb.scanForward = forward
	return qb
}

// Build creates the DynamoDB query input
func (qb *QueryBuilder) Build() (*dynamodb.QueryInput, error) {
	if qb.keyCondition == nil {
		return nil, fmt.Errorf("key condition is required for query")
	}

	builder := expression.NewBuilder().WithKeyCondition(*qb.keyCondition)

	if len(qb.filterConditions) > 0 {
		filter := qb.filterConditions[0]
		for i := 1; i < len(qb.filterConditions); i++ {
			filter = filter.And(qb.filterConditions[i])
		}
		builder = builder.WithFilter(filter)
	}

	if len(qb.projections) > 0 {
		proj := expression.NamesList(expression.Name(qb.projections[0]))
		for _, attr := range qb.projections[1:] {
			proj = proj.AddNames(expression.Name(attr))
		}
		builder = builder.WithProjection(proj)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(qb.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(qb.scanForward),
	}

	if len(qb.filterConditions) > 0 {
		input.FilterExpression = expr.Filter()
	}
	if len(qb.projections) > 0 {
		input.ProjectionExpression = expr.Projection()
	}
	if qb.indexName != "" {
		input.IndexName = aws.String(qb.indexName)
	}
	if qb.limit > 0 {
		input.Limit = aws.Int32(qb.limit)
	}

	return input, nil
}
