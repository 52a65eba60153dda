// Package memory provides an in-process implementation of the single-table
// store, used for local development and tests. It emulates the GSI1 index,
// conditional puts and all-or-nothing transactions.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"foodiary/infrastructure/persistence/abstractions"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Operation names a store call for error injection
type Operation string

const (
	OpGet           Operation = "Get"
	OpPut           Operation = "Put"
	OpPutIfAbsent   Operation = "PutIfAbsent"
	OpUpdate        Operation = "Update"
	OpQuery         Operation = "Query"
	OpTransactWrite Operation = "TransactWrite"
)

type transactFault struct {
	at  int
	err error
}

// Store is a map-backed abstractions.Store
type Store struct {
	mu    sync.RWMutex
	items map[abstractions.Key]abstractions.Item

	faults        map[Operation]error
	transactFault *transactFault
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		items:  make(map[abstractions.Key]abstractions.Item),
		faults: make(map[Operation]error),
	}
}

var _ abstractions.Store = (*Store)(nil)

// FailNext makes the next call of op return err without touching the data
func (s *Store) FailNext(op Operation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// FailTransactPutAt makes the next transaction fail on its n-th put (1-based).
// Like a real transaction, none of the puts are applied.
func (s *Store) FailTransactPutAt(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactFault = &transactFault{at: n, err: err}
}

// Len returns the number of stored items
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) takeFault(op Operation) error {
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

// Get returns a copy of the item stored at key
func (s *Store) Get(ctx context.Context, key abstractions.Key) (abstractions.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpGet); err != nil {
		return nil, err
	}

	item, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

// Put replaces whatever is stored under the item's key
func (s *Store) Put(ctx context.Context, item abstractions.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpPut); err != nil {
		return err
	}

	key, err := keyOf(item)
	if err != nil {
		return err
	}
	s.items[key] = copyItem(item)
	return nil
}

// PutIfAbsent stores the item only when its key is free
func (s *Store) PutIfAbsent(ctx context.Context, item abstractions.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpPutIfAbsent); err != nil {
		return err
	}

	key, err := keyOf(item)
	if err != nil {
		return err
	}
	if _, exists := s.items[key]; exists {
		return fmt.Errorf("%w: item %s/%s exists", abstractions.ErrConditionFailed, key.PK, key.SK)
	}
	s.items[key] = copyItem(item)
	return nil
}

// Update merges attributes into an existing item
func (s *Store) Update(ctx context.Context, key abstractions.Key, spec abstractions.UpdateSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpUpdate); err != nil {
		return err
	}

	existing, ok := s.items[key]
	if !ok {
		return fmt.Errorf("%w: item %s/%s does not exist", abstractions.ErrConditionFailed, key.PK, key.SK)
	}

	updated := copyItem(existing)
	for name, value := range spec.Set {
		if name == abstractions.AttrPK || name == abstractions.AttrSK {
			return fmt.Errorf("cannot update key attribute %s", name)
		}
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal attribute %s: %w", name, err)
		}
		updated[name] = av
	}
	s.items[key] = updated
	return nil
}

// Query reads one partition of the base table or of GSI1
func (s *Store) Query(ctx context.Context, spec abstractions.QuerySpec) ([]abstractions.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kc := spec.KeyCondition
	if kc.PartitionName == "" {
		return nil, fmt.Errorf("query requires a partition key name")
	}

	filters := make([]compiledFilter, 0, len(spec.Filters))
	for _, f := range spec.Filters {
		cf, err := compileFilter(f)
		if err != nil {
			return nil, err
		}
		filters = append(filters, cf)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpQuery); err != nil {
		return nil, err
	}

	sortName := kc.SortName
	if sortName == "" {
		sortName = defaultSortName(kc.PartitionName)
	}

	type candidate struct {
		sortValue string
		item      abstractions.Item
	}
	var candidates []candidate
	for _, item := range s.items {
		if stringAttr(item, kc.PartitionName) != kc.PartitionValue {
			continue
		}
		sv, ok := item[sortName].(*types.AttributeValueMemberS)
		if !ok {
			// sparse index: items without the sort attribute are not in it
			continue
		}
		sortValue := sv.Value
		if kc.HasSortCondition() && !matchSort(kc, sortValue) {
			continue
		}
		candidates = append(candidates, candidate{sortValue: sortValue, item: item})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if spec.ScanForward {
			return candidates[i].sortValue < candidates[j].sortValue
		}
		return candidates[i].sortValue > candidates[j].sortValue
	})

	var out []abstractions.Item
	for _, c := range candidates {
		if !matchFilters(c.item, filters) {
			continue
		}
		out = append(out, project(c.item, spec.Projection))
		if spec.Limit > 0 && int32(len(out)) >= spec.Limit {
			break
		}
	}
	return out, nil
}

// TransactWrite validates every put first and applies them only if all pass
func (s *Store) TransactWrite(ctx context.Context, puts []abstractions.TransactPut) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(puts) > abstractions.MaxTransactItems {
		return fmt.Errorf("%w: %d > %d", abstractions.ErrTooManyTransactItems, len(puts), abstractions.MaxTransactItems)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpTransactWrite); err != nil {
		return err
	}

	fault := s.transactFault
	s.transactFault = nil

	keys := make([]abstractions.Key, len(puts))
	seen := make(map[abstractions.Key]bool, len(puts))
	for i, p := range puts {
		if fault != nil && fault.at == i+1 {
			return fault.err
		}

		key, err := keyOf(p.Item)
		if err != nil {
			return err
		}
		if seen[key] {
			return fmt.Errorf("transaction touches %s/%s more than once", key.PK, key.SK)
		}
		seen[key] = true

		if p.IfNotExists {
			if _, exists := s.items[key]; exists {
				return fmt.Errorf("%w: item %s/%s exists", abstractions.ErrConditionFailed, key.PK, key.SK)
			}
		}
		keys[i] = key
	}

	for i, p := range puts {
		s.items[keys[i]] = copyItem(p.Item)
	}
	return nil
}

func keyOf(item abstractions.Item) (abstractions.Key, error) {
	pk := stringAttr(item, abstractions.AttrPK)
	sk := stringAttr(item, abstractions.AttrSK)
	if pk == "" || sk == "" {
		return abstractions.Key{}, fmt.Errorf("item is missing %s or %s", abstractions.AttrPK, abstractions.AttrSK)
	}
	return abstractions.Key{PK: pk, SK: sk}, nil
}

func defaultSortName(partitionName string) string {
	if partitionName == abstractions.AttrGSI1PK {
		return abstractions.AttrGSI1SK
	}
	return abstractions.AttrSK
}

func stringAttr(item abstractions.Item, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func matchSort(kc abstractions.KeyCondition, v string) bool {
	switch kc.SortOperator {
	case abstractions.KeyEqual:
		return v == kc.SortValue
	case abstractions.KeyBeginsWith:
		return strings.HasPrefix(v, kc.SortValue)
	case abstractions.KeyBetween:
		return v >= kc.SortValue && v <= kc.SortValueTo
	case abstractions.KeyLessThan:
		return v < kc.SortValue
	case abstractions.KeyLessThanOrEqual:
		return v <= kc.SortValue
	case abstractions.KeyGreaterThan:
		return v > kc.SortValue
	case abstractions.KeyGreaterThanOrEqual:
		return v >= kc.SortValue
	}
	return false
}

type compiledFilter struct {
	field    string
	operator abstractions.FilterOperator
	value    types.AttributeValue
}

func compileFilter(f abstractions.Filter) (compiledFilter, error) {
	av, err := attributevalue.Marshal(f.Value)
	if err != nil {
		return compiledFilter{}, fmt.Errorf("failed to marshal filter value for %s: %w", f.Field, err)
	}
	switch f.Operator {
	case abstractions.OpEqual, abstractions.OpNotEqual, "":
	default:
		return compiledFilter{}, fmt.Errorf("unsupported filter operator %q", f.Operator)
	}
	return compiledFilter{field: f.Field, operator: f.Operator, value: av}, nil
}

func matchFilters(item abstractions.Item, filters []compiledFilter) bool {
	for _, f := range filters {
		v, ok := item[f.field]
		equal := ok && reflect.DeepEqual(v, f.value)
		if f.operator == abstractions.OpNotEqual {
			if equal {
				return false
			}
			continue
		}
		if !equal {
			return false
		}
	}
	return true
}

func project(item abstractions.Item, names []string) abstractions.Item {
	if len(names) == 0 {
		return copyItem(item)
	}
	out := make(abstractions.Item, len(names))
	for _, n := range names {
		if v, ok := item[n]; ok {
			out[n] = v
		}
	}
	return out
}

func copyItem(item abstractions.Item) abstractions.Item {
	out := make(abstractions.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
