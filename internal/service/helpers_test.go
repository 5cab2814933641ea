package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"codesikho_backend/internal/content"
	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/repository"
	"codesikho_backend/internal/testutil"

	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingInvalidator) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixture struct {
	db       *gorm.DB
	curve    progression.LevelCurve
	progress *repository.ProgressRepository
	logs     *repository.ActivityLogRepository
	svc      *ProgressionService
	users    *UserService
	rankings *countingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCatalog(t, progression.DefaultCatalog())
}

func newFixtureWithCatalog(t *testing.T, badges *progression.Catalog) *fixture {
	t.Helper()
	db := testutil.DB(t)
	curve := progression.MustLevelCurve(progression.DefaultXPPerLevel)
	catalog, err := content.Load()
	if err != nil {
		t.Fatalf("load content: %v", err)
	}

	f := &fixture{
		db:       db,
		curve:    curve,
		progress: repository.NewProgressRepository(db, curve),
		logs:     repository.NewActivityLogRepository(db),
		rankings: &countingInvalidator{},
	}
	engine := progression.NewEngine(curve, badges).WithClock(func() time.Time { return testNow })
	f.svc = NewProgressionService(engine, f.progress, f.logs, catalog, f.rankings)
	f.users = NewUserService(f.progress, f.logs, badges, curve)
	return f
}

func (f *fixture) provision(t *testing.T, userID string) {
	t.Helper()
	if _, err := f.progress.Provision(context.Background(), userID, userID, ""); err != nil {
		t.Fatalf("provision %s: %v", userID, err)
	}
}

func (f *fixture) snapshot(t *testing.T, userID string) *progression.Snapshot {
	t.Helper()
	s, err := f.progress.ReadSnapshot(context.Background(), userID)
	if err != nil {
		t.Fatalf("read snapshot %s: %v", userID, err)
	}
	return s
}

func (f *fixture) logCount(t *testing.T, userID string) int {
	t.Helper()
	entries, err := f.logs.ReadRecentLog(context.Background(), userID, 1000)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func event(userID, activityID string, kind progression.ActivityKind, score, basis int) progression.Event {
	return progression.Event{
		UserID:           userID,
		ActivityID:       activityID,
		Kind:             kind,
		ScorePercent:     score,
		TimeSpentSeconds: 120,
		RewardBasisXP:    basis,
	}
}

func intPtr(v int) *int { return &v }
