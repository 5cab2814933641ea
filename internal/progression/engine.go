package progression

import (
	"strings"
	"time"
)

// PerfectScore is the score that counts toward the perfect-score badge.
const PerfectScore = 100

// Event is one completed activity reported by an activity source.
type Event struct {
	UserID           string       `json:"userId"`
	ActivityID       string       `json:"activityId"`
	Kind             ActivityKind `json:"activityKind"`
	ScorePercent     int          `json:"scorePercent"`
	TimeSpentSeconds int          `json:"timeSpentSeconds"`
	RewardBasisXP    int          `json:"rewardBasisXp"`
}

// Validate checks the event against the submission contract.
func (e Event) Validate() error {
	switch {
	case strings.TrimSpace(e.UserID) == "":
		return &InvalidEventError{Field: "userId", Reason: "is required"}
	case strings.TrimSpace(e.ActivityID) == "":
		return &InvalidEventError{Field: "activityId", Reason: "is required"}
	case !e.Kind.Valid():
		return &InvalidEventError{Field: "activityKind", Reason: "is unknown: " + string(e.Kind)}
	case e.ScorePercent < 0 || e.ScorePercent > 100:
		return &InvalidEventError{Field: "scorePercent", Reason: "must be within 0..100"}
	case e.RewardBasisXP < 0:
		return &InvalidEventError{Field: "rewardBasisXp", Reason: "must not be negative"}
	case e.TimeSpentSeconds < 0:
		return &InvalidEventError{Field: "timeSpentSeconds", Reason: "must not be negative"}
	}
	return nil
}

// XPForScore converts a score into XP: round(score/100 * basis), halves
// rounded up.
func XPForScore(scorePercent, rewardBasisXP int) int {
	if scorePercent <= 0 || rewardBasisXP <= 0 {
		return 0
	}
	return (scorePercent*rewardBasisXP + 50) / 100
}

// LogKind is the type of an activity log entry.
type LogKind string

const (
	LogActivityCompleted LogKind = "activity_completed"
	LogLevelUp           LogKind = "level_up"
	LogBadgeEarned       LogKind = "badge_earned"
)

// Details is the kind-specific payload of a log entry.
type Details map[string]any

// LogEntry is an immutable audit record produced by the engine.
type LogEntry struct {
	UserID       string    `json:"userId"`
	SubmissionID string    `json:"submissionId,omitempty"`
	Kind         LogKind   `json:"kind"`
	Details      Details   `json:"details"`
	Timestamp    time.Time `json:"timestamp"`
}

// Delta is the set of commutative mutations that turn the old snapshot into
// the new one at the persistence boundary.
type Delta struct {
	XP                  int
	AddBadgeIDs         []string
	CompletedActivityID string
	Kind                ActivityKind
	Score               int
	TimeSpentSeconds    int
	SetLevelIfGreater   int
}

// Outcome is the result of applying one event.
type Outcome struct {
	Snapshot         *Snapshot
	Entries          []LogEntry
	Delta            Delta
	XPEarned         int
	AlreadyCompleted bool
	LeveledUp        bool
	PreviousLevel    int
	NewBadgeIDs      []string
}

// Engine applies events to snapshots. It performs no I/O.
type Engine struct {
	curve   LevelCurve
	catalog *Catalog
	now     func() time.Time
}

// NewEngine builds an engine over the shared curve and catalog.
func NewEngine(curve LevelCurve, catalog *Catalog) *Engine {
	return &Engine{curve: curve, catalog: catalog, now: time.Now}
}

// WithClock replaces the timestamp source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	c := *e
	c.now = now
	return &c
}

// Curve returns the level curve the engine was built with.
func (e *Engine) Curve() LevelCurve { return e.curve }

// Catalog returns the badge catalog the engine was built with.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Apply computes the snapshot and log entries that result from ev. The input
// snapshot is never modified.
func (e *Engine) Apply(snapshot *Snapshot, ev Event) (*Outcome, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	now := e.now().UTC()

	if snapshot.HasCompleted(ev.ActivityID) {
		return &Outcome{
			Snapshot:         snapshot.Clone(),
			AlreadyCompleted: true,
			PreviousLevel:    snapshot.Level,
			Entries:          []LogEntry{activityEntry(ev, 0, true, now)},
		}, nil
	}

	xpEarned := XPForScore(ev.ScorePercent, ev.RewardBasisXP)
	next := snapshot.Clone()
	next.XP = snapshot.XP + xpEarned
	next.Level = e.curve.LevelForXP(next.XP)
	next.Completed[ev.ActivityID] = ev.Kind
	if ev.ScorePercent == PerfectScore {
		next.PerfectScoreCount++
	}
	leveledUp := next.Level > snapshot.Level

	counts := next.Counts()
	var earned []BadgeDefinition
	for _, b := range e.catalog.All() {
		if IsNewlyEligible(snapshot, next.XP, next.Level, counts, b) {
			earned = append(earned, b)
		}
	}

	out := &Outcome{
		Snapshot:      next,
		XPEarned:      xpEarned,
		LeveledUp:     leveledUp,
		PreviousLevel: snapshot.Level,
		NewBadgeIDs:   make([]string, 0, len(earned)),
	}

	out.Entries = append(out.Entries, activityEntry(ev, xpEarned, false, now))
	if leveledUp {
		out.Entries = append(out.Entries, LogEntry{
			UserID:    ev.UserID,
			Kind:      LogLevelUp,
			Details:   Details{"oldLevel": snapshot.Level, "newLevel": next.Level},
			Timestamp: now,
		})
	}
	for _, b := range earned {
		next.BadgeIDs[b.ID] = struct{}{}
		out.NewBadgeIDs = append(out.NewBadgeIDs, b.ID)
		out.Entries = append(out.Entries, BadgeEntry(ev.UserID, b, now))
	}

	out.Delta = Delta{
		XP:                  xpEarned,
		AddBadgeIDs:         out.NewBadgeIDs,
		CompletedActivityID: ev.ActivityID,
		Kind:                ev.Kind,
		Score:               ev.ScorePercent,
		TimeSpentSeconds:    ev.TimeSpentSeconds,
		SetLevelIfGreater:   next.Level,
	}
	return out, nil
}

// BadgeEntry builds the badge_earned log entry for b.
func BadgeEntry(userID string, b BadgeDefinition, at time.Time) LogEntry {
	return LogEntry{
		UserID:    userID,
		Kind:      LogBadgeEarned,
		Details:   Details{"badgeId": b.ID, "badgeName": b.Name, "rarity": b.Rarity.String()},
		Timestamp: at,
	}
}

func activityEntry(ev Event, xpEarned int, replay bool, at time.Time) LogEntry {
	d := Details{
		"activityId":   ev.ActivityID,
		"activityKind": string(ev.Kind),
		"score":        ev.ScorePercent,
		"xpEarned":     xpEarned,
		"timeSpent":    ev.TimeSpentSeconds,
	}
	if replay {
		d["replay"] = true
	}
	return LogEntry{
		UserID:    ev.UserID,
		Kind:      LogActivityCompleted,
		Details:   d,
		Timestamp: at,
	}
}
