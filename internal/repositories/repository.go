package repositories

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned when no record matches the requested key.
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateKey is returned when a write violates a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

// Order sorts by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query selects an ordered window of records. A zero Limit means no limit.
type Query struct {
	Offset  int
	Limit   int
	Orders  []Order
	Filters map[string]interface{} // column = value
}

// Repository defines data access for one record type.
type Repository[R any] interface {
	// FindAll returns the requested window and the total number of matching records.
	FindAll(ctx context.Context, q Query) ([]R, int64, error)
	FindByID(ctx context.Context, id int64) (*R, error)
	FindOneBy(ctx context.Context, column string, value interface{}) (*R, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// Create persists record and assigns its key.
	Create(ctx context.Context, record *R) error
	// Update overwrites every column of an existing record.
	Update(ctx context.Context, record *R) error
	// Delete removes the record and reports whether one existed.
	Delete(ctx context.Context, id int64) (bool, error)
	// Transaction runs fn against a repository bound to a single transaction.
	Transaction(ctx context.Context, fn func(repo Repository[R]) error) error
}
