package repositories

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm/schema"
)

// MemoryRepository is an in-memory implementation of Repository. Columns are
// resolved through the GORM schema of R so queries behave like the SQL store.
type MemoryRepository[R any] struct {
	entity  string
	schema  *schema.Schema
	records map[int64]R
	nextID  int64
	mu      sync.RWMutex
	txMu    sync.Mutex
}

// NewMemoryRepository creates a new instance of MemoryRepository.
func NewMemoryRepository[R any](entity string) (*MemoryRepository[R], error) {
	s, err := schema.Parse(new(R), &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s schema: %w", entity, err)
	}
	if s.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("%s has no primary key", entity)
	}
	return &MemoryRepository[R]{
		entity:  entity,
		schema:  s,
		records: make(map[int64]R),
	}, nil
}

// FindAll returns an ordered window of records and the total count.
func (r *MemoryRepository[R]) FindAll(ctx context.Context, q Query) ([]R, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]R, 0, len(r.records))
	for _, rec := range r.records {
		ok, err := r.matches(ctx, rec, q.Filters)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	orders := withIDTiebreak(q.Orders)
	fields := make([]*schema.Field, len(orders))
	for i, o := range orders {
		f := r.schema.LookUpField(o.Column)
		if f == nil {
			return nil, 0, fmt.Errorf("unknown %s column %q", r.entity, o.Column)
		}
		fields[i] = f
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := reflect.ValueOf(&matched[i]), reflect.ValueOf(&matched[j])
		for k, f := range fields {
			av, _ := f.ValueOf(ctx, a)
			bv, _ := f.ValueOf(ctx, b)
			c := compareValues(av, bv)
			if c == 0 {
				continue
			}
			if orders[k].Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []R{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

// FindByID returns a record by its ID.
func (r *MemoryRepository[R]) FindByID(ctx context.Context, id int64) (*R, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

// FindOneBy returns the record with the lowest ID whose column equals value.
func (r *MemoryRepository[R]) FindOneBy(ctx context.Context, column string, value interface{}) (*R, error) {
	all, _, err := r.FindAll(ctx, Query{Filters: map[string]interface{}{column: value}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrRecordNotFound
	}
	return &all[0], nil
}

// ExistsByID reports whether a record with the given ID exists.
func (r *MemoryRepository[R]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[id]
	return ok, nil
}

// Create adds a new record and assigns the next ID.
func (r *MemoryRepository[R]) Create(ctx context.Context, record *R) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	if err := r.schema.PrioritizedPrimaryField.Set(ctx, reflect.ValueOf(record), r.nextID); err != nil {
		return fmt.Errorf("failed to assign %s ID: %w", r.entity, err)
	}
	r.records[r.nextID] = *record
	return nil
}

// Update replaces an existing record.
func (r *MemoryRepository[R]) Update(ctx context.Context, record *R) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.idOf(ctx, record)
	if err != nil {
		return err
	}
	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("%s with ID %d not found for update: %w", r.entity, id, ErrRecordNotFound)
	}
	r.records[id] = *record
	return nil
}

// Delete removes a record by its ID.
func (r *MemoryRepository[R]) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.records[id]
	delete(r.records, id)
	return ok, nil
}

// Transaction serializes fn against other transactions. There is no rollback.
func (r *MemoryRepository[R]) Transaction(ctx context.Context, fn func(repo Repository[R]) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(r)
}

func (r *MemoryRepository[R]) idOf(ctx context.Context, record *R) (int64, error) {
	v, _ := r.schema.PrioritizedPrimaryField.ValueOf(ctx, reflect.ValueOf(record))
	id, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%s primary key is %T, want int64", r.entity, v)
	}
	return id, nil
}

func (r *MemoryRepository[R]) matches(ctx context.Context, rec R, filters map[string]interface{}) (bool, error) {
	rv := reflect.ValueOf(&rec)
	for column, want := range filters {
		f := r.schema.LookUpField(column)
		if f == nil {
			return false, fmt.Errorf("unknown %s column %q", r.entity, column)
		}
		got, _ := f.ValueOf(ctx, rv)
		if indirect(got) == nil || indirect(want) == nil || compareValues(got, want) != 0 {
			return false, nil
		}
	}
	return true, nil
}

func indirect(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// compareValues orders nil first, then by the natural order of the value kind.
func compareValues(a, b interface{}) int {
	a, b = indirect(a), indirect(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isInt(av) && isInt(bv):
		return cmp3(av.Int() < bv.Int(), av.Int() > bv.Int())
	case av.Kind() == reflect.Float64 && bv.Kind() == reflect.Float64:
		return cmp3(av.Float() < bv.Float(), av.Float() > bv.Float())
	case av.Kind() == reflect.Bool && bv.Kind() == reflect.Bool:
		return cmp3(!av.Bool() && bv.Bool(), av.Bool() && !bv.Bool())
	case av.Kind() == reflect.String && bv.Kind() == reflect.String:
		return strings.Compare(av.String(), bv.String())
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}
