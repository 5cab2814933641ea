package progression

import (
	"fmt"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, catalog *Catalog) *Engine {
	t.Helper()
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return NewEngine(MustLevelCurve(1000), catalog).WithClock(func() time.Time { return fixedNow })
}

func quizEvent(id string, score, basis int) Event {
	return Event{
		UserID:        "u1",
		ActivityID:    id,
		Kind:          KindQuiz,
		ScorePercent:  score,
		RewardBasisXP: basis,
	}
}

func TestXPForScore_Rounding(t *testing.T) {
	tests := []struct {
		score, basis, want int
	}{
		{85, 50, 43},
		{100, 50, 50},
		{0, 50, 0},
		{50, 1, 1},  // 0.5 rounds up
		{49, 1, 0},  // 0.49 rounds down
		{25, 10, 3}, // 2.5 rounds up
		{33, 3, 1},  // 0.99
		{70, 0, 0},
	}
	for _, tt := range tests {
		if got := XPForScore(tt.score, tt.basis); got != tt.want {
			t.Errorf("XPForScore(%d, %d) = %d, want %d", tt.score, tt.basis, got, tt.want)
		}
	}
}

func TestApply_InvalidEvents(t *testing.T) {
	e := newTestEngine(t, nil)
	snap := NewSnapshot("u1")
	tests := []struct {
		name  string
		ev    Event
		field string
	}{
		{"negative score", quizEvent("q", -1, 10), "scorePercent"},
		{"score over 100", quizEvent("q", 101, 10), "scorePercent"},
		{"unknown kind", Event{UserID: "u1", ActivityID: "q", Kind: "essay", ScorePercent: 50}, "activityKind"},
		{"negative basis", quizEvent("q", 50, -10), "rewardBasisXp"},
		{"missing activity", quizEvent("", 50, 10), "activityId"},
		{"missing user", Event{ActivityID: "q", Kind: KindQuiz}, "userId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Apply(snap, tt.ev)
			if out != nil {
				t.Fatal("invalid event must not produce an outcome")
			}
			ie, ok := err.(*InvalidEventError)
			if !ok {
				t.Fatalf("err = %v, want *InvalidEventError", err)
			}
			if ie.Field != tt.field {
				t.Errorf("field = %q, want %q", ie.Field, tt.field)
			}
			if !IsInvalidEvent(fmt.Errorf("wrapped: %w", err)) {
				t.Error("IsInvalidEvent should see through wrapping")
			}
		})
	}
	if snap.XP != 0 || len(snap.Completed) != 0 {
		t.Error("snapshot mutated by invalid events")
	}
}

func TestApply_BasicAward(t *testing.T) {
	e := newTestEngine(t, nil)
	snap := NewSnapshot("u1")

	out, err := e.Apply(snap, quizEvent("js-basics", 85, 50))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.XPEarned != 43 || out.Snapshot.XP != 43 {
		t.Errorf("xp earned %d, new xp %d; want 43", out.XPEarned, out.Snapshot.XP)
	}
	if out.AlreadyCompleted || out.LeveledUp {
		t.Errorf("unexpected flags: %+v", out)
	}
	if !out.Snapshot.HasCompleted("js-basics") {
		t.Error("activity not recorded as completed")
	}
	if snap.HasCompleted("js-basics") || snap.XP != 0 {
		t.Error("input snapshot must not be modified")
	}
	// first quiz unlocks first-steps only
	if len(out.NewBadgeIDs) != 1 || out.NewBadgeIDs[0] != "first-steps" {
		t.Errorf("new badges = %v, want [first-steps]", out.NewBadgeIDs)
	}
	if out.Delta.XP != 43 || out.Delta.CompletedActivityID != "js-basics" || out.Delta.SetLevelIfGreater != 1 {
		t.Errorf("delta = %+v", out.Delta)
	}
	if got := out.Entries[0].Details["xpEarned"]; got != 43 {
		t.Errorf("activity entry xpEarned = %v", got)
	}
	if !out.Entries[0].Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v", out.Entries[0].Timestamp)
	}
}

func TestApply_ReplayIsIdempotent(t *testing.T) {
	e := newTestEngine(t, nil)
	ev := quizEvent("js-basics", 100, 50)

	first, err := e.Apply(NewSnapshot("u1"), ev)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Apply(first.Snapshot, ev)
	if err != nil {
		t.Fatal(err)
	}
	if !second.AlreadyCompleted {
		t.Fatal("second apply should be a replay")
	}
	if second.XPEarned != 0 || second.LeveledUp || len(second.NewBadgeIDs) != 0 {
		t.Errorf("replay granted rewards: %+v", second)
	}
	if second.Snapshot.XP != first.Snapshot.XP || len(second.Snapshot.BadgeIDs) != len(first.Snapshot.BadgeIDs) {
		t.Error("replay changed the snapshot")
	}
	if len(second.Entries) != 1 || second.Entries[0].Kind != LogActivityCompleted {
		t.Fatalf("replay entries = %+v", second.Entries)
	}
	if second.Entries[0].Details["xpEarned"] != 0 || second.Entries[0].Details["replay"] != true {
		t.Errorf("replay entry details = %v", second.Entries[0].Details)
	}
	if second.Delta.CompletedActivityID != "" {
		t.Error("replay must not carry a delta")
	}
}

func TestApply_MultiBadgeUnlockOrder(t *testing.T) {
	catalog, err := NewCatalog([]BadgeDefinition{
		{ID: "xp-1000", Name: "Thousand", Requirement: Requirement{Metric: MetricXP, Threshold: 1000}},
		{ID: "level-2", Name: "Level Two", Requirement: Requirement{Metric: MetricLevel, Threshold: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, catalog)
	snap := NewSnapshot("u1")
	snap.XP = 990

	out, err := e.Apply(snap, quizEvent("sql-joins", 100, 50))
	if err != nil {
		t.Fatal(err)
	}
	if out.Snapshot.XP != 1040 || out.Snapshot.Level != 2 {
		t.Fatalf("xp/level = %d/%d, want 1040/2", out.Snapshot.XP, out.Snapshot.Level)
	}
	if !out.LeveledUp || out.PreviousLevel != 1 {
		t.Errorf("leveledUp=%v previous=%d", out.LeveledUp, out.PreviousLevel)
	}
	if len(out.NewBadgeIDs) != 2 || out.NewBadgeIDs[0] != "xp-1000" || out.NewBadgeIDs[1] != "level-2" {
		t.Errorf("new badges = %v, want catalog order", out.NewBadgeIDs)
	}

	wantKinds := []LogKind{LogActivityCompleted, LogLevelUp, LogBadgeEarned, LogBadgeEarned}
	if len(out.Entries) != len(wantKinds) {
		t.Fatalf("got %d entries, want %d", len(out.Entries), len(wantKinds))
	}
	for i, k := range wantKinds {
		if out.Entries[i].Kind != k {
			t.Errorf("entry %d kind = %s, want %s", i, out.Entries[i].Kind, k)
		}
	}
	if out.Entries[1].Details["oldLevel"] != 1 || out.Entries[1].Details["newLevel"] != 2 {
		t.Errorf("level-up details = %v", out.Entries[1].Details)
	}
	if out.Entries[2].Details["badgeId"] != "xp-1000" || out.Entries[3].Details["badgeId"] != "level-2" {
		t.Error("badge entries out of catalog order")
	}
}

func TestApply_PerfectScoreCounts(t *testing.T) {
	e := newTestEngine(t, nil)
	out, err := e.Apply(NewSnapshot("u1"), quizEvent("q1", 100, 10))
	if err != nil {
		t.Fatal(err)
	}
	if out.Snapshot.PerfectScoreCount != 1 {
		t.Errorf("perfect count = %d", out.Snapshot.PerfectScoreCount)
	}
	found := false
	for _, id := range out.NewBadgeIDs {
		if id == "perfectionist" {
			found = true
		}
	}
	if !found {
		t.Errorf("perfectionist not unlocked: %v", out.NewBadgeIDs)
	}
}

func TestApply_InvariantsOverSequence(t *testing.T) {
	e := newTestEngine(t, nil)
	snap := NewSnapshot("u1")
	kinds := []ActivityKind{KindQuiz, KindCodingChallenge, KindMiniGame}

	prevXP := 0
	prevBadges := 0
	for i := 0; i < 60; i++ {
		ev := Event{
			UserID:        "u1",
			ActivityID:    fmt.Sprintf("act-%d", i),
			Kind:          kinds[i%len(kinds)],
			ScorePercent:  (i * 37) % 101,
			RewardBasisXP: 25 + (i%4)*25,
		}
		out, err := e.Apply(snap, ev)
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		snap = out.Snapshot

		if snap.XP < prevXP {
			t.Fatalf("xp decreased at %d: %d -> %d", i, prevXP, snap.XP)
		}
		if want := e.Curve().LevelForXP(snap.XP); snap.Level != want {
			t.Fatalf("level %d inconsistent with xp %d (want %d)", snap.Level, snap.XP, want)
		}
		if len(snap.BadgeIDs) < prevBadges {
			t.Fatalf("badges shrank at %d", i)
		}
		for id := range snap.BadgeIDs {
			if _, ok := e.Catalog().ByID(id); !ok {
				t.Fatalf("badge %q not in catalog", id)
			}
		}
		prevXP, prevBadges = snap.XP, len(snap.BadgeIDs)
	}
	if len(snap.Completed) != 60 {
		t.Errorf("completed = %d, want 60", len(snap.Completed))
	}
}

func TestApply_MultipleLevelsInOneSubmission(t *testing.T) {
	e := NewEngine(MustLevelCurve(100), DefaultCatalog())
	out, err := e.Apply(NewSnapshot("u1"), quizEvent("big", 100, 350))
	if err != nil {
		t.Fatal(err)
	}
	if out.Snapshot.Level != 4 {
		t.Errorf("level = %d, want 4", out.Snapshot.Level)
	}
	levelUps := 0
	for _, en := range out.Entries {
		if en.Kind == LogLevelUp {
			levelUps++
		}
	}
	if levelUps != 1 {
		t.Errorf("level-up entries = %d, want exactly 1", levelUps)
	}
}
