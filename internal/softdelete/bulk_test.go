package softdelete

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/softstore/internal/models"
	"github.com/charlesng35/softstore/pkg/metrics"
)

func countCreates(t *testing.T, db *gorm.DB) *int {
	t.Helper()

	calls := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:count_creates", func(*gorm.DB) {
		calls++
	}))
	return &calls
}

func TestBulkInsertIgnoreSkipsExistingRows(t *testing.T) {
	ctx := context.Background()
	repo, db := newTagRepo(t, WithEntityName("bulk_skip"))

	existing := &models.Tag{Name: "b", Description: "original"}
	require.NoError(t, repo.Create(ctx, existing))

	calls := countCreates(t, db)
	inserted, err := repo.BulkInsertIgnore(ctx, []*models.Tag{
		{Name: "a", Description: "new"},
		{Name: "b", Description: "replacement"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, inserted)
	require.Equal(t, 1, *calls)

	a, err := repo.Get(ctx, Conditions{"name": "a"})
	require.NoError(t, err)
	require.Equal(t, "new", a.Description)

	b, err := repo.Get(ctx, Conditions{"name": "b"})
	require.NoError(t, err)
	require.Equal(t, existing.ID, b.ID)
	require.Equal(t, "original", b.Description)

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.BulkInsertRows.WithLabelValues("bulk_skip", "inserted")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.BulkInsertRows.WithLabelValues("bulk_skip", "ignored")))
}

func TestBulkInsertIgnoreLeavesDeletedRowsDeleted(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTagRepo(t)

	tag := &models.Tag{Name: "retired"}
	require.NoError(t, repo.Create(ctx, tag))
	require.NoError(t, repo.SoftDelete(ctx, tag))

	inserted, err := repo.BulkInsertIgnore(ctx, []*models.Tag{{Name: "retired"}})
	require.NoError(t, err)
	require.Zero(t, inserted)

	stored, err := repo.Unfiltered(ctx).Filter(Conditions{"name": "retired"}).First()
	require.NoError(t, err)
	require.True(t, stored.Deleted)
}

func TestBulkInsertIgnoreEmptyInputSkipsStorage(t *testing.T) {
	ctx := context.Background()
	repo, db := newTagRepo(t)
	calls := countCreates(t, db)

	inserted, err := repo.BulkInsertIgnore(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, inserted)

	inserted, err = repo.BulkInsertIgnore(ctx, []*models.Tag{})
	require.NoError(t, err)
	require.Zero(t, inserted)
	require.Zero(t, *calls)
}

func TestBulkInsertIgnoreRejectsNilItems(t *testing.T) {
	repo, _ := newTagRepo(t)

	_, err := repo.BulkInsertIgnore(context.Background(), []*models.Tag{{Name: "ok"}, nil})
	require.ErrorIs(t, err, ErrNotRecord)
}

func TestConflictOutcomesAreCounted(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTagRepo(t, WithEntityName("conflict_metrics"))

	tag := &models.Tag{Name: "m"}
	require.NoError(t, repo.Create(ctx, tag))
	require.Error(t, repo.Create(ctx, &models.Tag{Name: "m"}))
	require.NoError(t, repo.SoftDelete(ctx, tag))
	require.NoError(t, repo.Create(ctx, &models.Tag{Name: "m"}))

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.SaveConflicts.WithLabelValues("conflict_metrics", outcomeDuplicate)))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.SaveConflicts.WithLabelValues("conflict_metrics", outcomeResurrected)))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.SoftDeletes.WithLabelValues("conflict_metrics")))
}
