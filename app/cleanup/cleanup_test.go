package cleanup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/km-arc/go-housekeeper/app/cleanup"
	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/database"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.AddDate(0, 0, -n) }

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(context.Background(), config.DBConfig{Driver: "sqlite", Database: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(cleanup.Models()...))
	return db
}

func policy() cleanup.Policy {
	return cleanup.Policy{
		RetentionDays:   30,
		RevisionsToKeep: 2,
		BatchSize:       2,
		Clock:           func() time.Time { return now },
	}
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	posts := []cleanup.Post{
		{ID: 1, Type: cleanup.TypePost, Status: cleanup.StatusPublish, ModifiedAt: daysAgo(1)},
		{ID: 2, Type: cleanup.TypePost, Status: cleanup.StatusTrash, ModifiedAt: daysAgo(45)},
		{ID: 3, Type: cleanup.TypePost, Status: cleanup.StatusTrash, ModifiedAt: daysAgo(5)},
		// five revisions of post 1, two of post 2
		{ID: 10, Type: cleanup.TypeRevision, ParentID: 1, ModifiedAt: daysAgo(10)},
		{ID: 11, Type: cleanup.TypeRevision, ParentID: 1, ModifiedAt: daysAgo(9)},
		{ID: 12, Type: cleanup.TypeRevision, ParentID: 1, ModifiedAt: daysAgo(8)},
		{ID: 13, Type: cleanup.TypeRevision, ParentID: 1, ModifiedAt: daysAgo(7)},
		{ID: 14, Type: cleanup.TypeRevision, ParentID: 1, ModifiedAt: daysAgo(6)},
		{ID: 20, Type: cleanup.TypeRevision, ParentID: 2, ModifiedAt: daysAgo(50)},
		{ID: 21, Type: cleanup.TypeRevision, ParentID: 2, ModifiedAt: daysAgo(49)},
	}
	require.NoError(t, db.Create(&posts).Error)

	comments := []cleanup.Comment{
		{PostID: 1, Status: cleanup.CommentApproved, CreatedAt: daysAgo(60)},
		{PostID: 1, Status: cleanup.CommentSpam, CreatedAt: daysAgo(40)},
		{PostID: 1, Status: cleanup.CommentSpam, CreatedAt: daysAgo(2)},
		{PostID: 1, Status: cleanup.CommentTrash, CreatedAt: daysAgo(31)},
		{PostID: 2, Status: cleanup.CommentApproved, CreatedAt: daysAgo(46)},
	}
	require.NoError(t, db.Create(&comments).Error)

	transients := []cleanup.Transient{
		{Name: "feed_cache", ExpiresAt: now.Add(-time.Hour)},
		{Name: "update_check", ExpiresAt: now.Add(-time.Minute)},
		{Name: "session", ExpiresAt: now.Add(time.Hour)},
	}
	require.NoError(t, db.Create(&transients).Error)
}

func TestRevisionsAnalyzer(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	a := cleanup.NewRevisionsAnalyzer(db, policy())
	ctx := context.Background()

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	deleted, err := a.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	var left []uint
	require.NoError(t, db.Model(&cleanup.Post{}).Where("type = ?", cleanup.TypeRevision).Order("id").Pluck("id", &left).Error)
	assert.Equal(t, []uint{13, 14, 20, 21}, left, "the newest two revisions per post stay")
}

func TestTrashAnalyzer(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	a := cleanup.NewTrashAnalyzer(db, policy())
	ctx := context.Background()

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := a.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var posts, orphans int64
	require.NoError(t, db.Model(&cleanup.Post{}).Where("id = 2 OR parent_id = 2").Count(&posts).Error)
	require.NoError(t, db.Model(&cleanup.Comment{}).Where("post_id = 2").Count(&orphans).Error)
	assert.Zero(t, posts)
	assert.Zero(t, orphans)

	n, err = a.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "recently trashed post is kept")
}

func TestSpamAnalyzer(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	a := cleanup.NewSpamAnalyzer(db, policy())
	ctx := context.Background()

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	deleted, err := a.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var left int64
	require.NoError(t, db.Model(&cleanup.Comment{}).Count(&left).Error)
	assert.Equal(t, int64(3), left)
}

func TestTransientsAnalyzer(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	a := cleanup.NewTransientsAnalyzer(db, policy())
	ctx := context.Background()

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	deleted, err := a.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var names []string
	require.NoError(t, db.Model(&cleanup.Transient{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"session"}, names)
}

// ── Policy ───────────────────────────────────────────────────────────────────

func TestPolicy(t *testing.T) {
	p := cleanup.PolicyFromConfig(config.CleanupConfig{RetentionDays: 30, RevisionsToKeep: 5, BatchSize: 100})
	assert.Equal(t, 30, p.RetentionDays)

	p = p.Override(map[string]string{
		cleanup.SettingRetentionDays:   "7",
		cleanup.SettingRevisionsToKeep: "not a number",
	})
	assert.Equal(t, 7, p.RetentionDays)
	assert.Equal(t, 5, p.RevisionsToKeep)

	p.Clock = func() time.Time { return now }
	assert.Equal(t, daysAgo(7), p.Cutoff())
}

// ── Cleaner ──────────────────────────────────────────────────────────────────

type fakeAnalyzer struct {
	name  string
	count int64
	err   error
	runs  int
}

func (f *fakeAnalyzer) Name() string        { return f.name }
func (f *fakeAnalyzer) Description() string { return f.name + " rows" }

func (f *fakeAnalyzer) Count(context.Context) (int64, error) { return f.count, f.err }

func (f *fakeAnalyzer) Clean(context.Context) (int64, error) {
	f.runs++
	if f.err != nil {
		return 0, f.err
	}
	n := f.count
	f.count = 0
	return n, nil
}

func TestCleaner_ReportAndRunAll(t *testing.T) {
	a := &fakeAnalyzer{name: "a", count: 3}
	b := &fakeAnalyzer{name: "b", count: 1}
	c := cleanup.NewCleaner(zerolog.Nop(), a, b)
	ctx := context.Background()

	assert.Equal(t, []string{"a", "b"}, c.Analyzers())

	report, err := c.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, []cleanup.Result{
		{Analyzer: "a", Description: "a rows", Count: 3},
		{Analyzer: "b", Description: "b rows", Count: 1},
	}, report)

	results, err := c.RunAll(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(3), results[0].Count)

	report, err = c.Report(ctx)
	require.NoError(t, err)
	assert.Zero(t, report[0].Count+report[1].Count)
}

func TestCleaner_Run(t *testing.T) {
	a := &fakeAnalyzer{name: "a", count: 3}
	c := cleanup.NewCleaner(zerolog.Nop(), a)

	r, err := c.Run(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.Count)

	_, err = c.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, cleanup.ErrUnknownAnalyzer)
}

func TestCleaner_RunAllStopsAtFirstError(t *testing.T) {
	boom := errors.New("locked")
	a := &fakeAnalyzer{name: "a", err: boom}
	b := &fakeAnalyzer{name: "b", count: 1}
	c := cleanup.NewCleaner(zerolog.Nop(), a, b)

	_, err := c.RunAll(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, b.runs)
}
