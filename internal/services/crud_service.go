package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/dto"
	"ridesharing/internal/entities"
	"ridesharing/internal/events"
	"ridesharing/internal/mapper"
	"ridesharing/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// SortOrder sorts by one transfer object property.
type SortOrder struct {
	Property string
	Desc     bool
}

// Query selects the records returned by FindAll. A zero Size returns every record.
type Query struct {
	Page  int
	Size  int
	Sort  []SortOrder
	Owner *int64
}

// Page is one ordered window of transfer objects.
type Page[D any] struct {
	Items []D
	Total int64
}

// PatchResult is the outcome of a partial update. Changed is false when the
// merged record equals the stored one and nothing was written.
type PatchResult[D any] struct {
	Value   D
	Changed bool
}

// Service is the use-case boundary for one entity.
type Service[D any] interface {
	Save(ctx context.Context, d D) (D, error)
	Update(ctx context.Context, d D) (D, error)
	PartialUpdate(ctx context.Context, d D) (PatchResult[D], error)
	FindAll(ctx context.Context, q Query) (Page[D], error)
	FindOne(ctx context.Context, id int64) (D, bool, error)
	Delete(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// CrudService handles the generic create, read, update and delete logic of an entity.
type CrudService[R any, D dto.Identified] struct {
	entity    entities.Definition
	repo      repositories.Repository[R]
	mapper    mapper.Mapper[R, D]
	validate  *validator.Validate
	publisher events.Publisher
}

// NewCrudService creates a new CrudService. A nil publisher drops change events.
func NewCrudService[R any, D dto.Identified](
	entity entities.Definition,
	repo repositories.Repository[R],
	m mapper.Mapper[R, D],
	validate *validator.Validate,
	publisher events.Publisher,
) *CrudService[R, D] {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &CrudService[R, D]{
		entity:    entity,
		repo:      repo,
		mapper:    m,
		validate:  validate,
		publisher: publisher,
	}
}

// Entity returns the definition the service was built for.
func (s *CrudService[R, D]) Entity() entities.Definition {
	return s.entity
}

// Save persists a new record. The transfer object must not carry an id.
func (s *CrudService[R, D]) Save(ctx context.Context, d D) (D, error) {
	var saved D
	if d.GetID() != nil {
		return saved, apperrors.InvalidRequest(s.entity.Name, "idexists", fmt.Sprintf("A new %s cannot already have an ID", s.entity.Name))
	}
	if err := validateStruct(s.validate, s.entity.Name, d); err != nil {
		return saved, err
	}

	record := s.mapper.ToRecord(d)
	err := s.repo.Transaction(ctx, func(tx repositories.Repository[R]) error {
		return tx.Create(ctx, &record)
	})
	if err != nil {
		return saved, s.storageError("save", err)
	}

	saved = s.mapper.ToDTO(record)
	s.publish(ctx, events.Created, idOf(saved))
	return saved, nil
}

// Update overwrites every mapped field of an existing record.
func (s *CrudService[R, D]) Update(ctx context.Context, d D) (D, error) {
	var updated D
	id := d.GetID()
	if id == nil {
		return updated, apperrors.MissingID(s.entity.Name)
	}
	if err := validateStruct(s.validate, s.entity.Name, d); err != nil {
		return updated, err
	}

	record := s.mapper.ToRecord(d)
	err := s.repo.Transaction(ctx, func(tx repositories.Repository[R]) error {
		exists, err := tx.ExistsByID(ctx, *id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound(s.entity.Name, *id)
		}
		return tx.Update(ctx, &record)
	})
	if err != nil {
		return updated, s.storageError("update", err)
	}

	updated = s.mapper.ToDTO(record)
	s.publish(ctx, events.Updated, *id)
	return updated, nil
}

// PartialUpdate merges the non-nil fields of d into the stored record. The
// merged projection is validated before anything is written.
func (s *CrudService[R, D]) PartialUpdate(ctx context.Context, d D) (PatchResult[D], error) {
	var result PatchResult[D]
	id := d.GetID()
	if id == nil {
		return result, apperrors.MissingID(s.entity.Name)
	}

	err := s.repo.Transaction(ctx, func(tx repositories.Repository[R]) error {
		existing, err := tx.FindByID(ctx, *id)
		if err != nil {
			if errors.Is(err, repositories.ErrRecordNotFound) {
				return apperrors.NotFound(s.entity.Name, *id)
			}
			return err
		}

		merged := *existing
		s.mapper.ApplyNonNull(d, &merged)
		if err := validateStruct(s.validate, s.entity.Name, s.mapper.ToDTO(merged)); err != nil {
			return err
		}

		result.Value = s.mapper.ToDTO(merged)
		if reflect.DeepEqual(*existing, merged) {
			return nil
		}
		result.Changed = true
		return tx.Update(ctx, &merged)
	})
	if err != nil {
		return PatchResult[D]{}, s.storageError("partially update", err)
	}

	if result.Changed {
		s.publish(ctx, events.Updated, *id)
	}
	return result, nil
}

// FindAll returns the records selected by q in order.
func (s *CrudService[R, D]) FindAll(ctx context.Context, q Query) (Page[D], error) {
	rq, err := s.repositoryQuery(q)
	if err != nil {
		return Page[D]{}, err
	}

	var (
		records []R
		total   int64
	)
	err = s.repo.Transaction(ctx, func(tx repositories.Repository[R]) error {
		var err error
		records, total, err = tx.FindAll(ctx, rq)
		return err
	})
	if err != nil {
		return Page[D]{}, s.storageError("list", err)
	}
	return Page[D]{Items: mapper.ToDTOs(s.mapper, records), Total: total}, nil
}

// FindOne returns the record with the given id, if there is one.
func (s *CrudService[R, D]) FindOne(ctx context.Context, id int64) (D, bool, error) {
	var (
		found  D
		record *R
	)
	err := s.repo.Transaction(ctx, func(tx repositories.Repository[R]) error {
		var err error
		record, err = tx.FindByID(ctx, id)
		return err
	})
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return found, false, nil
	}
	if err != nil {
		return found, false, s.storageError("get", err)
	}
	return s.mapper.ToDTO(*record), true, nil
}

// Delete removes the record with the given id. Deleting a missing record succeeds.
func (s *CrudService[R, D]) Delete(ctx context.Context, id int64) error {
	var removed bool
	err := s.repo.Transaction(ctx, func(tx repositories.Repository[R]) error {
		var err error
		removed, err = tx.Delete(ctx, id)
		return err
	})
	if err != nil {
		return s.storageError("delete", err)
	}
	if !removed {
		log.Printf("Delete of missing %s %d ignored", s.entity.Name, id)
	}
	s.publish(ctx, events.Deleted, id)
	return nil
}

// ExistsByID reports whether a record with the given id exists.
func (s *CrudService[R, D]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return false, s.storageError("check", err)
	}
	return exists, nil
}

func (s *CrudService[R, D]) repositoryQuery(q Query) (repositories.Query, error) {
	rq := repositories.Query{}
	for _, o := range q.Sort {
		column, ok := s.entity.Column(o.Property)
		if !ok {
			return rq, apperrors.InvalidRequest(s.entity.Name, "sortinvalid", fmt.Sprintf("Cannot sort %s by %q", s.entity.Name, o.Property))
		}
		rq.Orders = append(rq.Orders, repositories.Order{Column: column, Desc: o.Desc})
	}
	if q.Owner != nil {
		if !s.entity.Owned() {
			return rq, apperrors.InvalidRequest(s.entity.Name, "ownerunsupported", fmt.Sprintf("%s has no owner", s.entity.Name))
		}
		rq.Filters = map[string]interface{}{s.entity.OwnerColumn: *q.Owner}
	}
	if q.Size > 0 {
		rq.Offset = q.Page * q.Size
		rq.Limit = q.Size
	}
	return rq, nil
}

// storageError passes application errors through and wraps everything else.
func (s *CrudService[R, D]) storageError(op string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return apperrors.InvalidRequest(s.entity.Name, "duplicate", fmt.Sprintf("%s violates a unique constraint", s.entity.Name))
	}
	return fmt.Errorf("failed to %s %s: %w", op, s.entity.Name, err)
}

func (s *CrudService[R, D]) publish(ctx context.Context, action events.Action, id int64) {
	event := events.NewChangeEvent(s.entity.Name, action, id)
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", event.RoutingKey(), err)
	}
}

func idOf(d dto.Identified) int64 {
	if id := d.GetID(); id != nil {
		return *id
	}
	return 0
}
