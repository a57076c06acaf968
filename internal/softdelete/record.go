// Package softdelete provides a gorm repository whose deletes only flag rows. Flagged
// rows keep occupying their keys, and a later insert that collides with one of them
// brings it back with the new values.
package softdelete

import "errors"

// DeletedColumn is the column holding the soft-delete flag.
const DeletedColumn = "deleted"

// Record is implemented by soft-deletable models, usually by embedding models.BaseModel.
type Record interface {
	PrimaryKey() string
	SetPrimaryKey(id string)
	IsDeleted() bool
	SetDeleted(deleted bool)
}

// NaturalKeyer is implemented by records whose primary key is generated on insert. The
// returned columns are used to find a conflicting row when the primary key lookup
// finds nothing.
type NaturalKeyer interface {
	NaturalKey() map[string]any
}

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("softdelete: record not found")
	// ErrNoRowsUpdated is returned when a forced update matched no row.
	ErrNoRowsUpdated = errors.New("softdelete: forced update did not affect any rows")
	// ErrMissingPrimaryKey is returned when an operation needs a key the record lacks.
	ErrMissingPrimaryKey = errors.New("softdelete: record has no key")
	// ErrNotRecord is returned by New when the model does not implement Record.
	ErrNotRecord = errors.New("softdelete: model does not implement Record")
)

// isRepositoryError reports errors produced by this package rather than by storage.
func isRepositoryError(err error) bool {
	return errors.Is(err, ErrNoRowsUpdated) ||
		errors.Is(err, ErrMissingPrimaryKey) ||
		errors.Is(err, ErrNotRecord) ||
		errors.Is(err, ErrNotFound)
}
