package softdelete

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MissingRowPolicy decides what Save returns when storage reports a uniqueness conflict
// but the conflicting row cannot be found through the unfiltered view.
type MissingRowPolicy int

const (
	// PropagateLookupError returns an error matching ErrNotFound that also wraps the conflict.
	PropagateLookupError MissingRowPolicy = iota
	// PropagateConflict returns the original storage conflict unchanged.
	PropagateConflict
)

func (p MissingRowPolicy) String() string {
	switch p {
	case PropagateConflict:
		return "conflict"
	default:
		return "lookup_error"
	}
}

// ParseMissingRowPolicy maps a configuration value onto a policy. Empty selects the default.
func ParseMissingRowPolicy(value string) (MissingRowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "lookup_error", "lookup":
		return PropagateLookupError, nil
	case "conflict":
		return PropagateConflict, nil
	default:
		return PropagateLookupError, fmt.Errorf("softdelete: unknown missing row policy %q", value)
	}
}

// ConflictClassifier reports whether err is a uniqueness conflict and why.
type ConflictClassifier func(err error) (reason string, ok bool)

// Option customises a Repository.
type Option func(*options)

type options struct {
	insensitive []string
	missing     MissingRowPolicy
	classify    ConflictClassifier
	log         *zap.Logger
	entity      string
}

// WithCaseInsensitiveFields makes equality filters on the named columns ignore case.
func WithCaseInsensitiveFields(columns ...string) Option {
	return func(o *options) {
		o.insensitive = append(o.insensitive, columns...)
	}
}

// WithMissingRowPolicy selects the behaviour when a conflicting row cannot be found.
func WithMissingRowPolicy(policy MissingRowPolicy) Option {
	return func(o *options) {
		o.missing = policy
	}
}

// WithConflictClassifier replaces the storage conflict classifier.
func WithConflictClassifier(fn ConflictClassifier) Option {
	return func(o *options) {
		if fn != nil {
			o.classify = fn
		}
	}
}

// WithLogger injects the logger used for conflict and resurrection events.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithEntityName overrides the entity label used in logs and metrics. Defaults to the table name.
func WithEntityName(name string) Option {
	return func(o *options) {
		if name = strings.TrimSpace(name); name != "" {
			o.entity = name
		}
	}
}

// Mode selects how Save persists a record.
type Mode int

const (
	// ModeAuto inserts records without a key and updates the rest, inserting when the
	// update matched no row.
	ModeAuto Mode = iota
	// ModeInsert always inserts.
	ModeInsert
	// ModeUpdate always updates and fails with ErrNoRowsUpdated when no row matched.
	ModeUpdate
)

// SaveOption customises a single Save call.
type SaveOption func(*Mode)

// ForceInsert makes Save insert the record.
func ForceInsert() SaveOption {
	return func(m *Mode) { *m = ModeInsert }
}

// ForceUpdate makes Save update the existing row.
func ForceUpdate() SaveOption {
	return func(m *Mode) { *m = ModeUpdate }
}
