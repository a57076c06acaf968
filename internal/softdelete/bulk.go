package softdelete

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/softstore/pkg/metrics"
)

// BulkInsertIgnore inserts recs in one statement, skipping rows that would violate a
// uniqueness constraint, deleted rows included. It returns the number of rows inserted.
// An empty batch is a no-op.
func (r *Repository[T]) BulkInsertIgnore(ctx context.Context, recs []*T) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	for i, rec := range recs {
		if _, err := asRecord(rec); err != nil {
			return 0, fmt.Errorf("softdelete: bulk insert item %d: %w", i, err)
		}
	}

	tx := r.db.WithContext(ctx).Session(&gorm.Session{CreateBatchSize: len(recs)})
	if tx.Dialector.Name() == "mysql" {
		tx = tx.Clauses(clause.Insert{Modifier: "IGNORE"})
	} else {
		tx = tx.Clauses(clause.OnConflict{DoNothing: true})
	}

	result := tx.Create(&recs)
	if result.Error != nil {
		return 0, fmt.Errorf("softdelete: bulk insert %s: %w", r.entity, result.Error)
	}

	inserted := result.RowsAffected
	metrics.BulkInsertRows.WithLabelValues(r.entity, "inserted").Add(float64(inserted))
	if ignored := int64(len(recs)) - inserted; ignored > 0 {
		metrics.BulkInsertRows.WithLabelValues(r.entity, "ignored").Add(float64(ignored))
	}
	r.log.Debug("bulk insert finished", zap.Int("submitted", len(recs)), zap.Int64("inserted", inserted))
	return inserted, nil
}
