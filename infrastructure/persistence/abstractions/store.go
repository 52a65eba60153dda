package abstractions

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is one stored record: a flat attribute map carrying PK, SK, type and,
// where the entity has one, GSI1PK/GSI1SK.
type Item = map[string]types.AttributeValue

// Attribute names shared by every record in the table
const (
	AttrPK     = "PK"
	AttrSK     = "SK"
	AttrGSI1PK = "GSI1PK"
	AttrGSI1SK = "GSI1SK"
	AttrType   = "type"
)

// MaxTransactItems is the largest batch a single transaction accepts
const MaxTransactItems = 100

var (
	// ErrConditionFailed is returned (wrapped) when a conditional write finds
	// the item already present, or an update finds it missing.
	ErrConditionFailed = errors.New("condition check failed")

	// ErrTooManyTransactItems is returned when a transaction exceeds MaxTransactItems
	ErrTooManyTransactItems = errors.New("too many items in transaction")
)

// Key addresses one record on the base table
type Key struct {
	PK string
	SK string
}

// KeyOperator is the comparison applied to the sort key of a query
type KeyOperator string

const (
	KeyEqual              KeyOperator = "eq"
	KeyBeginsWith         KeyOperator = "begins_with"
	KeyBetween            KeyOperator = "between"
	KeyLessThan           KeyOperator = "lt"
	KeyLessThanOrEqual    KeyOperator = "lte"
	KeyGreaterThan        KeyOperator = "gt"
	KeyGreaterThanOrEqual KeyOperator = "gte"
)

// KeyCondition is an equality on the partition key plus an optional sort key
// condition. Leaving SortOperator empty selects the whole partition.
type KeyCondition struct {
	PartitionName  string
	PartitionValue string
	SortName       string
	SortOperator   KeyOperator
	SortValue      string
	SortValueTo    string // upper bound for KeyBetween
}

// HasSortCondition reports whether the condition narrows the sort key
func (k KeyCondition) HasSortCondition() bool {
	return k.SortOperator != "" && k.SortName != ""
}

// FilterOperator defines the comparison of a post-query filter
type FilterOperator string

const (
	OpEqual    FilterOperator = "eq"
	OpNotEqual FilterOperator = "ne"
)

// Filter represents a condition on a non-key attribute, applied after the
// key condition selected the items
type Filter struct {
	Field    string
	Operator FilterOperator
	Value    interface{}
}

// QuerySpec describes a single-partition query
type QuerySpec struct {
	IndexName    string // empty for the base table
	KeyCondition KeyCondition
	Filters      []Filter
	Projection   []string
	ScanForward  bool
	Limit        int32 // 0 means no limit
}

// UpdateSpec is a partial attribute merge. Attributes not named in Set are
// left untouched. The target item must already exist.
type UpdateSpec struct {
	Set map[string]interface{}
}

// TransactPut is one put of an all-or-nothing batch
type TransactPut struct {
	Item        Item
	IfNotExists bool // fail the whole batch if an item with the same key exists
}

// Store is the single-table adapter. Errors from the underlying store are
// returned to the caller without retries.
type Store interface {
	// Get returns the item at key, or nil when it does not exist
	Get(ctx context.Context, key Key) (Item, error)

	// Put stores the item unconditionally (last writer wins)
	Put(ctx context.Context, item Item) error

	// PutIfAbsent stores the item only when no item with the same key exists
	PutIfAbsent(ctx context.Context, item Item) error

	// Update merges the given attributes into an existing item
	Update(ctx context.Context, key Key, spec UpdateSpec) error

	// Query returns the items of one partition of the table or an index
	Query(ctx context.Context, spec QuerySpec) ([]Item, error)

	// TransactWrite stores every put or none of them
	TransactWrite(ctx context.Context, puts []TransactPut) error
}
