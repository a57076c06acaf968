package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	testutil "github.com/charlesng35/softstore/internal/database/testutil"
	"github.com/charlesng35/softstore/internal/models"
	"github.com/charlesng35/softstore/internal/softdelete"
)

type fixedClock struct {
	current time.Time
}

func (f fixedClock) Now() time.Time {
	return f.current
}

type failingTarget struct {
	name string
}

func (f failingTarget) EntityName() string { return f.name }

func (f failingTarget) PurgeDeleted(context.Context, time.Time) (int64, error) {
	return 0, errors.New("storage offline")
}

func seedTag(t *testing.T, db *gorm.DB, repo *softdelete.Repository[models.Tag], name string, deleted bool, updatedAt time.Time) {
	t.Helper()

	tag := &models.Tag{Name: name}
	require.NoError(t, repo.Create(context.Background(), tag))
	if deleted {
		require.NoError(t, repo.SoftDelete(context.Background(), tag))
	}
	require.NoError(t, db.Model(&models.Tag{}).Where("id = ?", tag.ID).UpdateColumn("updated_at", updatedAt).Error)
}

func TestPurgerRunOnceRemovesExpiredDeletedRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	repo, err := softdelete.New[models.Tag](db)
	require.NoError(t, err)

	clock := fixedClock{current: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}
	seedTag(t, db, repo, "expired", true, clock.Now().AddDate(0, 0, -10))
	seedTag(t, db, repo, "recent", true, clock.Now().AddDate(0, 0, -1))
	seedTag(t, db, repo, "live", false, clock.Now().AddDate(0, 0, -30))

	p := NewPurger([]Purgeable{repo},
		WithNow(clock.Now),
		WithRetention(7*24*time.Hour),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	stats, err := p.Purge(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), stats["tags"])

	var names []string
	require.NoError(t, db.Model(&models.Tag{}).Order("name").Pluck("name", &names).Error)
	require.Equal(t, []string{"live", "recent"}, names)

	require.NoError(t, p.RunOnce(context.Background()))
}

func TestPurgerAggregatesTargetErrors(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	repo, err := softdelete.New[models.Tag](db)
	require.NoError(t, err)

	p := NewPurger([]Purgeable{failingTarget{name: "a"}, nil, repo, failingTarget{name: "b"}})

	stats, err := p.Purge(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.Contains(t, err.Error(), "purge a")
	require.Contains(t, stats, "tags")
}

func TestPurgerCutoffUsesRetention(t *testing.T) {
	clock := fixedClock{current: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}

	p := NewPurger(nil, WithNow(clock.Now))
	require.Equal(t, clock.Now().Add(-30*24*time.Hour), p.Cutoff())

	p = NewPurger(nil, WithNow(clock.Now), WithRetention(time.Hour), WithRetention(-time.Hour))
	require.Equal(t, clock.Now().Add(-time.Hour), p.Cutoff())
}

func TestPurgerStartValidatesSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	repo, err := softdelete.New[models.Tag](db)
	require.NoError(t, err)

	p := NewPurger([]Purgeable{repo}, WithSchedule("not a schedule"))
	require.Error(t, p.Start())

	p = NewPurger([]Purgeable{repo}, WithSchedule("@every 1h"))
	require.NoError(t, p.Start())
	<-p.Stop().Done()

	idle := NewPurger(nil)
	require.NoError(t, idle.Start())
	<-idle.Stop().Done()
}
