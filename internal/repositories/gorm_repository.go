package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMRepository is a GORM implementation of Repository.
type GORMRepository[R any] struct {
	db     *gorm.DB
	entity string
}

// NewGORMRepository creates a new instance of GORMRepository.
func NewGORMRepository[R any](db *gorm.DB, entity string) *GORMRepository[R] {
	return &GORMRepository[R]{
		db:     db,
		entity: entity,
	}
}

// FindAll retrieves an ordered window of records and the total count.
func (r *GORMRepository[R]) FindAll(ctx context.Context, q Query) ([]R, int64, error) {
	base := r.db.WithContext(ctx).Model(new(R))
	for column, value := range q.Filters {
		base = base.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s records: %w", r.entity, err)
	}

	find := base.Session(&gorm.Session{})
	for _, o := range withIDTiebreak(q.Orders) {
		find = find.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Offset > 0 {
		find = find.Offset(q.Offset)
	}
	if q.Limit > 0 {
		find = find.Limit(q.Limit)
	}

	records := make([]R, 0)
	if err := find.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get %s records: %w", r.entity, err)
	}
	return records, total, nil
}

// FindByID retrieves a single record by its ID.
func (r *GORMRepository[R]) FindByID(ctx context.Context, id int64) (*R, error) {
	var record R
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get %s by ID %d: %w", r.entity, id, err)
	}
	return &record, nil
}

// FindOneBy retrieves the first record whose column equals value.
func (r *GORMRepository[R]) FindOneBy(ctx context.Context, column string, value interface{}) (*R, error) {
	var record R
	err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get %s by %s: %w", r.entity, column, err)
	}
	return &record, nil
}

// ExistsByID reports whether a record with the given ID exists.
func (r *GORMRepository[R]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(R)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s %d: %w", r.entity, id, err)
	}
	return count > 0, nil
}

// Create inserts the record; the database assigns the ID.
func (r *GORMRepository[R]) Create(ctx context.Context, record *R) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", r.entity, translate(err))
	}
	return nil
}

// Update writes every column, zero values included. Save is avoided because it
// inserts when the row is missing.
func (r *GORMRepository[R]) Update(ctx context.Context, record *R) error {
	res := r.db.WithContext(ctx).Model(record).Select("*").Updates(record)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s: %w", r.entity, translate(res.Error))
	}
	return nil
}

// Delete removes a record by its ID. Missing records are not an error.
func (r *GORMRepository[R]) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(new(R), id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete %s: %w", r.entity, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Transaction runs fn inside a database transaction.
func (r *GORMRepository[R]) Transaction(ctx context.Context, fn func(repo Repository[R]) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMRepository[R]{db: tx, entity: r.entity})
	})
}

func withIDTiebreak(orders []Order) []Order {
	for _, o := range orders {
		if o.Column == "id" {
			return orders
		}
	}
	out := make([]Order, 0, len(orders)+1)
	out = append(out, orders...)
	return append(out, Order{Column: "id"})
}

// translate maps driver errors, already normalized by gorm's TranslateError
// option, onto repository errors.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
