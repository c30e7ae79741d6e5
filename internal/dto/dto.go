// Package dto holds the transfer objects exchanged at the REST boundary.
// Every field is nullable so that absent and explicit values can be told apart
// during partial updates. Relationships are carried as id-only references.
package dto

// Ref points at a related record by id only.
type Ref struct {
	ID int64 `json:"id"`
}

// Identified is implemented by every transfer object.
type Identified interface {
	GetID() *int64
}
