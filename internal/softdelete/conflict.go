package softdelete

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/charlesng35/softstore/pkg/metrics"
)

const (
	outcomeResurrected = "resurrected"
	outcomeDuplicate   = "duplicate"
	outcomeMissing     = "missing"
)

// resolveConflict runs once per Save. The retry goes straight to update so a second
// conflict is returned as is.
func (r *Repository[T]) resolveConflict(ctx context.Context, rec *T, record Record, cause error) error {
	reason, ok := r.classify(cause)
	if !ok {
		return cause
	}
	log := r.log.With(zap.String("reason", reason))

	occupant, err := r.findOccupant(ctx, rec, record)
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.SaveConflicts.WithLabelValues(r.entity, outcomeMissing).Inc()
		log.Warn("conflicting row not found", zap.String("id", record.PrimaryKey()), zap.Error(cause))
		if r.missing == PropagateConflict {
			return cause
		}
		return fmt.Errorf("%w: no %s row matches the conflicting write (%w)", ErrNotFound, r.entity, cause)
	case err != nil:
		return fmt.Errorf("softdelete: look up conflicting %s row: %w", r.entity, err)
	}

	existing := any(occupant).(Record)
	if !existing.IsDeleted() {
		metrics.SaveConflicts.WithLabelValues(r.entity, outcomeDuplicate).Inc()
		log.Debug("write collides with a live row", zap.String("id", existing.PrimaryKey()))
		return cause
	}

	priorKey := record.PrimaryKey()
	restoreCreatedAt := r.inheritCreatedAt(ctx, rec, occupant)
	record.SetPrimaryKey(existing.PrimaryKey())
	if err := r.update(r.db.WithContext(ctx), rec, record); err != nil {
		// rec keeps its own key and creation time on failure.
		record.SetPrimaryKey(priorKey)
		restoreCreatedAt()
		return err
	}

	metrics.SaveConflicts.WithLabelValues(r.entity, outcomeResurrected).Inc()
	log.Info("soft-deleted record resurrected", zap.String("id", existing.PrimaryKey()))
	return nil
}

// findOccupant looks up the row rec collided with, by key first and then by the natural
// key. Matching is exact regardless of case-insensitive fields.
func (r *Repository[T]) findOccupant(ctx context.Context, rec *T, record Record) (*T, error) {
	if id := record.PrimaryKey(); id != "" {
		occupant, err := r.Unfiltered(ctx).exact().Filter(Conditions{r.pk.DBName: id}).First()
		if !errors.Is(err, ErrNotFound) {
			return occupant, err
		}
	}

	keyer, ok := any(rec).(NaturalKeyer)
	if !ok {
		return nil, ErrNotFound
	}
	key := keyer.NaturalKey()
	if len(key) == 0 {
		return nil, ErrNotFound
	}
	return r.Unfiltered(ctx).exact().Filter(key).First()
}

// inheritCreatedAt copies the occupant's creation time onto rec and returns a func
// putting the previous value back.
func (r *Repository[T]) inheritCreatedAt(ctx context.Context, rec, occupant *T) func() {
	if r.createdAt == nil {
		return func() {}
	}
	target := reflect.ValueOf(rec).Elem()
	previous, _ := r.createdAt.ValueOf(ctx, target)
	value, zero := r.createdAt.ValueOf(ctx, reflect.ValueOf(occupant).Elem())
	if zero {
		return func() {}
	}
	if err := r.createdAt.Set(ctx, target, value); err != nil {
		r.log.Debug("keep new creation time", zap.Error(err))
		return func() {}
	}
	return func() {
		_ = r.createdAt.Set(ctx, target, previous)
	}
}
