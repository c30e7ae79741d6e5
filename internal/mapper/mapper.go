// Package mapper projects persisted records to transfer objects and back.
// Mappers are pure: no validation, no storage access, no side effects.
package mapper

import "ridesharing/internal/dto"

// Mapper is the bidirectional projection between a record R and its transfer object D.
type Mapper[R any, D any] interface {
	ToDTO(record R) D
	ToRecord(d D) R
	// ApplyNonNull copies every non-nil field of d onto target and leaves the rest untouched.
	ApplyNonNull(d D, target *R)
}

// ToDTOs maps a slice of records.
func ToDTOs[R any, D any](m Mapper[R, D], records []R) []D {
	out := make([]D, 0, len(records))
	for _, r := range records {
		out = append(out, m.ToDTO(r))
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// copyPtr returns an independent pointer so records and DTOs never alias.
func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func toRef(id *int64) *dto.Ref {
	if id == nil {
		return nil
	}
	return &dto.Ref{ID: *id}
}

func fromRef(ref *dto.Ref) *int64 {
	if ref == nil {
		return nil
	}
	return ptr(ref.ID)
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return ptr(s)
}
