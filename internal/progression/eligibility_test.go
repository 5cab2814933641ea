package progression

import "testing"

func TestIsNewlyEligible(t *testing.T) {
	xpBadge := BadgeDefinition{ID: "xp", Requirement: Requirement{Metric: MetricXP, Threshold: 100}}
	levelBadge := BadgeDefinition{ID: "lvl", Requirement: Requirement{Metric: MetricLevel, Threshold: 3}}
	quizBadge := BadgeDefinition{ID: "quiz", Requirement: Requirement{Metric: MetricQuizzesCompleted, Threshold: 2}}
	codeBadge := BadgeDefinition{ID: "code", Requirement: Requirement{Metric: MetricCodingChallengesCompleted, Threshold: 1}}
	perfectBadge := BadgeDefinition{ID: "perfect", Requirement: Requirement{Metric: MetricPerfectScoreCount, Threshold: 1}}

	held := NewSnapshot("u1")
	held.BadgeIDs["xp"] = struct{}{}

	tests := []struct {
		name   string
		snap   *Snapshot
		xp     int
		level  int
		counts DerivedCounts
		badge  BadgeDefinition
		want   bool
	}{
		{"xp below", NewSnapshot("u1"), 99, 1, DerivedCounts{}, xpBadge, false},
		{"xp exact", NewSnapshot("u1"), 100, 1, DerivedCounts{}, xpBadge, true},
		{"already held", held, 5000, 6, DerivedCounts{}, xpBadge, false},
		{"level met", NewSnapshot("u1"), 0, 3, DerivedCounts{}, levelBadge, true},
		{"quiz count", NewSnapshot("u1"), 0, 1, DerivedCounts{QuizzesCompleted: 2}, quizBadge, true},
		{"coding not quiz", NewSnapshot("u1"), 0, 1, DerivedCounts{QuizzesCompleted: 5}, codeBadge, false},
		{"perfect", NewSnapshot("u1"), 0, 1, DerivedCounts{PerfectScoreCount: 1}, perfectBadge, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNewlyEligible(tt.snap, tt.xp, tt.level, tt.counts, tt.badge); got != tt.want {
				t.Errorf("IsNewlyEligible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	snap := NewSnapshot("u1")
	snap.XP = 50
	snap.Completed["q1"] = KindQuiz
	snap.BadgeIDs["first-steps"] = struct{}{}

	byID := map[string]BadgeProgress{}
	for _, p := range Progress(DefaultCatalog(), snap) {
		byID[p.Badge.ID] = p
	}
	if p := byID["first-steps"]; !p.Unlocked || p.Percentage != 100 {
		t.Errorf("first-steps = %+v", p)
	}
	if p := byID["knowledge-seeker"]; p.Unlocked || p.Current != 50 || p.Target != 100 || p.Percentage != 50 {
		t.Errorf("knowledge-seeker = %+v", p)
	}
	if p := byID["quiz-master"]; p.Current != 1 || p.Percentage != 10 {
		t.Errorf("quiz-master = %+v", p)
	}
	if len(byID) != DefaultCatalog().Len() {
		t.Errorf("progress covers %d badges, want %d", len(byID), DefaultCatalog().Len())
	}
}
