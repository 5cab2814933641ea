package service

import (
	"context"
	"errors"
	"testing"

	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/util"
)

func TestGetStats(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "u1")
	ctx := context.Background()

	subs := []progression.Event{
		event("u1", "q1", progression.KindQuiz, 100, 50),
		event("u1", "c1", progression.KindCodingChallenge, 80, 50),
		event("u1", "g1", progression.KindMiniGame, 60, 25),
	}
	for _, ev := range subs {
		if _, err := f.svc.Submit(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := NewStatsService(f.progress, f.curve).GetStats(ctx, "u1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	// 50 + 40 + 15
	if stats.TotalXP != 105 || stats.CurrentLevel != 1 {
		t.Errorf("xp/level = %d/%d", stats.TotalXP, stats.CurrentLevel)
	}
	if stats.QuizzesCompleted != 1 || stats.CodingChallengesCompleted != 1 || stats.MiniGamesCompleted != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.PerfectScoreCount != 1 || stats.AverageScore != 80 {
		t.Errorf("perfect/average = %d/%d", stats.PerfectScoreCount, stats.AverageScore)
	}
	// 3 x 120s
	if stats.TimeSpentMinutes != 6 {
		t.Errorf("minutes = %d, want 6", stats.TimeSpentMinutes)
	}
}

func TestGetStats_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := NewStatsService(f.progress, f.curve).GetStats(context.Background(), "ghost"); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}
