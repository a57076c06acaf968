package softdelete

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/charlesng35/softstore/internal/database"
	"github.com/charlesng35/softstore/pkg/logger"
	"github.com/charlesng35/softstore/pkg/metrics"
)

// Repository persists soft-deletable records of type T. *T must implement Record.
type Repository[T any] struct {
	db          *gorm.DB
	entity      string
	pk          *schema.Field
	createdAt   *schema.Field
	updatedAt   *schema.Field
	insensitive map[string]struct{}
	missing     MissingRowPolicy
	classify    ConflictClassifier
	log         *zap.Logger
}

// New parses the schema of T and returns a repository bound to db.
func New[T any](db *gorm.DB, opts ...Option) (*Repository[T], error) {
	if db == nil {
		return nil, errors.New("softdelete: database handle is required")
	}
	if _, ok := any(new(T)).(Record); !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotRecord, new(T))
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("softdelete: parse schema: %w", err)
	}
	sch := stmt.Schema
	if sch.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("softdelete: %s has no primary key", sch.Name)
	}
	if sch.LookUpField(DeletedColumn) == nil {
		return nil, fmt.Errorf("softdelete: %s has no %q column", sch.Name, DeletedColumn)
	}

	cfg := options{
		missing:  PropagateLookupError,
		classify: database.ConflictReason,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	entity := cfg.entity
	if entity == "" {
		entity = sch.Table
	}
	log := cfg.log
	if log == nil {
		log = logger.WithModule("softdelete")
	}

	insensitive := make(map[string]struct{}, len(cfg.insensitive))
	for _, column := range cfg.insensitive {
		if column = strings.TrimSpace(column); column != "" {
			insensitive[column] = struct{}{}
		}
	}

	return &Repository[T]{
		db:          db,
		entity:      entity,
		pk:          sch.PrioritizedPrimaryField,
		createdAt:   sch.LookUpField("created_at"),
		updatedAt:   sch.LookUpField("updated_at"),
		insensitive: insensitive,
		missing:     cfg.missing,
		classify:    cfg.classify,
		log:         log.With(zap.String("entity", entity)),
	}, nil
}

// EntityName returns the label used in logs and metrics.
func (r *Repository[T]) EntityName() string {
	return r.entity
}

// Save persists rec. Without options, records lacking a key are inserted and keyed
// records are updated, falling back to an insert when no row matched.
//
// When storage rejects the write with a uniqueness conflict, the conflicting row is
// looked up through the unfiltered view. A soft-deleted occupant is overwritten with
// rec's values, keeping its key and creation time, and comes back live. A live
// occupant leaves the original conflict error in place.
func (r *Repository[T]) Save(ctx context.Context, rec *T, opts ...SaveOption) error {
	record, err := asRecord(rec)
	if err != nil {
		return err
	}

	mode := ModeAuto
	for _, opt := range opts {
		opt(&mode)
	}

	err = r.persist(ctx, rec, record, mode)
	if err == nil || isRepositoryError(err) {
		return err
	}
	return r.resolveConflict(ctx, rec, record, err)
}

// Create inserts rec, resurrecting a soft-deleted row it collides with.
func (r *Repository[T]) Create(ctx context.Context, rec *T) error {
	return r.Save(ctx, rec, ForceInsert())
}

// SoftDelete flags rec as deleted and persists it as an ordinary update.
func (r *Repository[T]) SoftDelete(ctx context.Context, rec *T) error {
	record, err := asRecord(rec)
	if err != nil {
		return err
	}

	wasDeleted := record.IsDeleted()
	record.SetDeleted(true)
	if err := r.Save(ctx, rec, ForceUpdate()); err != nil {
		record.SetDeleted(wasDeleted)
		return err
	}

	metrics.SoftDeletes.WithLabelValues(r.entity).Inc()
	r.log.Debug("record soft-deleted", zap.String("id", record.PrimaryKey()))
	return nil
}

// Delete is SoftDelete. Physical removal goes through HardDelete.
func (r *Repository[T]) Delete(ctx context.Context, rec *T) error {
	return r.SoftDelete(ctx, rec)
}

// HardDelete removes rec's row from storage.
func (r *Repository[T]) HardDelete(ctx context.Context, rec *T) error {
	record, err := asRecord(rec)
	if err != nil {
		return err
	}
	id := record.PrimaryKey()
	if id == "" {
		return ErrMissingPrimaryKey
	}

	result := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: r.pk.DBName}, Value: id}).
		Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	metrics.HardDeletes.WithLabelValues(r.entity, "delete").Add(float64(result.RowsAffected))
	r.log.Info("record removed", zap.String("id", id))
	return nil
}

// PurgeDeleted removes soft-deleted rows last updated before the cutoff. A zero cutoff
// removes every soft-deleted row.
func (r *Repository[T]) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: DeletedColumn}, Value: true})
	if r.updatedAt != nil && !before.IsZero() {
		tx = tx.Where(clause.Lt{Column: clause.Column{Name: r.updatedAt.DBName}, Value: before})
	}

	result := tx.Delete(new(T))
	if result.Error != nil {
		return 0, fmt.Errorf("softdelete: purge %s: %w", r.entity, result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.HardDeletes.WithLabelValues(r.entity, "purge").Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// Default is the view of live rows.
func (r *Repository[T]) Default(ctx context.Context) *Query[T] {
	return r.Unfiltered(ctx).Filter(Conditions{DeletedColumn: false})
}

// Unfiltered is the view of every row, deleted or not.
func (r *Repository[T]) Unfiltered(ctx context.Context) *Query[T] {
	return newQuery[T](r.db.WithContext(ctx).Model(new(T)), r.insensitive)
}

// Deleted is the view of soft-deleted rows.
func (r *Repository[T]) Deleted(ctx context.Context) *Query[T] {
	return r.Unfiltered(ctx).Filter(Conditions{DeletedColumn: true})
}

// Get returns the live row matching conds or ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, conds Conditions) (*T, error) {
	return r.Default(ctx).Filter(conds).First()
}

// GetOrNone returns the live row matching conds, or nil when there is none.
func (r *Repository[T]) GetOrNone(ctx context.Context, conds Conditions) (*T, error) {
	rec, err := r.Get(ctx, conds)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (r *Repository[T]) persist(ctx context.Context, rec *T, record Record, mode Mode) error {
	db := r.db.WithContext(ctx)
	switch mode {
	case ModeInsert:
		return db.Create(rec).Error
	case ModeUpdate:
		return r.update(db, rec, record)
	}

	if record.PrimaryKey() == "" {
		return db.Create(rec).Error
	}
	if err := r.update(db, rec, record); !errors.Is(err, ErrNoRowsUpdated) {
		return err
	}
	return db.Create(rec).Error
}

// update writes every column of rec except the creation time to the row sharing its key.
func (r *Repository[T]) update(db *gorm.DB, rec *T, record Record) error {
	if record.PrimaryKey() == "" {
		return ErrMissingPrimaryKey
	}

	tx := db.Model(rec).Select("*")
	if r.createdAt != nil {
		tx = tx.Omit(r.createdAt.DBName)
	}
	result := tx.Updates(rec)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

func asRecord[T any](rec *T) (Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrNotRecord)
	}
	record, ok := any(rec).(Record)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotRecord, rec)
	}
	return record, nil
}
