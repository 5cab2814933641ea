package service

import (
	"context"
	"errors"
	"fmt"

	"codesikho_backend/internal/content"
	"codesikho_backend/internal/model"
	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/repository"
	"codesikho_backend/internal/util"
	"codesikho_backend/pkg/logger"
	"codesikho_backend/pkg/monitoring"
	"codesikho_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CacheInvalidator is told when rankings may have changed.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type ProgressionService struct {
	Engine       *progression.Engine
	ProgressRepo *repository.ProgressRepository
	LogRepo      *repository.ActivityLogRepository
	Content      *content.Catalog
	Rankings     CacheInvalidator
	// Badges resolves earned badge ids for persistence and display. It is
	// the engine's catalog unless replaced.
	Badges *progression.Catalog
}

func NewProgressionService(
	engine *progression.Engine,
	progressRepo *repository.ProgressRepository,
	logRepo *repository.ActivityLogRepository,
	catalog *content.Catalog,
	rankings CacheInvalidator,
) *ProgressionService {
	return &ProgressionService{
		Engine:       engine,
		ProgressRepo: progressRepo,
		LogRepo:      logRepo,
		Content:      catalog,
		Rankings:     rankings,
		Badges:       engine.Catalog(),
	}
}

// SubmissionRequest is what a client reports after finishing an activity.
// Kind and reward come from the content catalog, never from the client.
type SubmissionRequest struct {
	ActivityID       string `json:"activityId" binding:"required"`
	ScorePercent     *int   `json:"scorePercent"`
	CorrectAnswers   int    `json:"correctAnswers"`
	TotalQuestions   int    `json:"totalQuestions"`
	TestResults      []bool `json:"testResults"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

type SubmissionResult struct {
	SubmissionID     string                        `json:"submissionId"`
	ActivityID       string                        `json:"activityId"`
	XPEarned         int                           `json:"xpEarned"`
	AlreadyCompleted bool                          `json:"alreadyCompleted"`
	LeveledUp        bool                          `json:"leveledUp"`
	PreviousLevel    int                           `json:"previousLevel"`
	Level            int                           `json:"level"`
	TotalXP          int                           `json:"totalXp"`
	NewBadges        []progression.BadgeDefinition `json:"newBadges"`
	Entries          []progression.LogEntry        `json:"entries"`
}

// SubmitActivity resolves the activity from the catalog and submits it.
func (s *ProgressionService) SubmitActivity(ctx context.Context, userID string, req SubmissionRequest) (*SubmissionResult, error) {
	activity, err := s.Content.Get(req.ActivityID)
	if err != nil {
		return nil, err
	}

	score, ok := content.ScorePercent(activity, content.ScoreInput{
		ScorePercent:   req.ScorePercent,
		CorrectAnswers: req.CorrectAnswers,
		TotalQuestions: req.TotalQuestions,
		TestResults:    req.TestResults,
	})
	if !ok {
		return nil, &progression.InvalidEventError{Field: "scorePercent", Reason: "is required for " + string(activity.Kind)}
	}

	return s.Submit(ctx, content.Event(userID, activity, score, req.TimeSpentSeconds))
}

// Submit validates ev, applies it to the stored snapshot and persists the
// delta together with its log entries in one transaction.
func (s *ProgressionService) Submit(ctx context.Context, ev progression.Event) (res *SubmissionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "ProgressionService.Submit",
		attribute.String("user.id", ev.UserID),
		attribute.String("activity.id", ev.ActivityID),
		attribute.String("activity.kind", string(ev.Kind)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	outcomeLabel := "error"
	defer func() {
		monitoring.SubmissionCounter.WithLabelValues(kindLabel(ev.Kind), outcomeLabel).Inc()
	}()

	if err := ev.Validate(); err != nil {
		outcomeLabel = "invalid"
		return nil, err
	}

	snapshot, err := s.ProgressRepo.ReadSnapshot(ctx, ev.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			outcomeLabel = "not_found"
			return nil, err
		}
		return nil, fmt.Errorf("%w: read snapshot: %v", util.ErrPersistenceUnavailable, err)
	}

	outcome, err := s.Engine.Apply(snapshot, ev)
	if err != nil {
		outcomeLabel = "invalid"
		return nil, err
	}
	submissionID := model.GenerateUUID()

	if outcome.AlreadyCompleted {
		entries := withSubmission(outcome.Entries, submissionID)
		if err := s.LogRepo.AppendLogEntries(s.LogRepo.DB.WithContext(ctx), entries); err != nil {
			return nil, fmt.Errorf("%w: append log: %v", util.ErrPersistenceUnavailable, err)
		}
		outcomeLabel = "replay"
		return replayResult(submissionID, ev, outcome.Snapshot, entries), nil
	}

	badges := s.resolveBadges(ev.UserID, outcome.NewBadgeIDs)
	delta := outcome.Delta
	delta.AddBadgeIDs = badgeIDs(badges)
	at := outcome.Entries[0].Timestamp

	var (
		written repository.DeltaResult
		entries []progression.LogEntry
	)
	err = s.ProgressRepo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		written, err = s.ProgressRepo.WriteSnapshotDelta(tx, ev.UserID, delta, at)
		if err != nil {
			return err
		}
		if !written.Applied {
			entries = s.replayEntries(snapshot, ev)
		} else {
			entries = s.appliedEntries(outcome, badges, written.InsertedBadgeIDs)
		}
		entries = withSubmission(entries, submissionID)
		return s.LogRepo.AppendLogEntries(tx, entries)
	})
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			outcomeLabel = "not_found"
			return nil, err
		}
		return nil, fmt.Errorf("%w: write delta: %v", util.ErrPersistenceUnavailable, err)
	}

	if !written.Applied {
		// a concurrent submission of the same activity committed first
		logger.Log.Info("Submission lost completion race, recorded as replay",
			zap.String("userID", ev.UserID),
			zap.String("activityID", ev.ActivityID))
		outcomeLabel = "replay"
		return replayResult(submissionID, ev, snapshot, entries), nil
	}

	outcomeLabel = "awarded"
	result := &SubmissionResult{
		SubmissionID:  submissionID,
		ActivityID:    ev.ActivityID,
		XPEarned:      outcome.XPEarned,
		LeveledUp:     written.Level > snapshot.Level,
		PreviousLevel: snapshot.Level,
		Level:         written.Level,
		TotalXP:       written.XP,
		NewBadges:     make([]progression.BadgeDefinition, 0, len(written.InsertedBadgeIDs)),
		Entries:       entries,
	}
	for _, id := range written.InsertedBadgeIDs {
		if b, ok := s.Badges.ByID(id); ok {
			result.NewBadges = append(result.NewBadges, b)
		}
	}
	s.recordAward(ev, result)
	if s.Rankings != nil {
		s.Rankings.Invalidate(ctx)
	}

	logger.Log.Info("Activity submission applied",
		zap.String("userID", ev.UserID),
		zap.String("activityID", ev.ActivityID),
		zap.Int("xpEarned", result.XPEarned),
		zap.Int("level", result.Level),
		zap.Int("newBadges", len(result.NewBadges)))
	return result, nil
}

// resolveBadges maps earned ids back to catalog definitions. Ids the catalog
// cannot resolve are logged and skipped.
func (s *ProgressionService) resolveBadges(userID string, ids []string) []progression.BadgeDefinition {
	out := make([]progression.BadgeDefinition, 0, len(ids))
	for _, id := range ids {
		b, ok := s.Badges.ByID(id)
		if !ok {
			logger.Log.Error("Skipping badge award",
				zap.String("userID", userID),
				zap.Error(&progression.BadgeCatalogInconsistencyError{BadgeID: id}))
			continue
		}
		out = append(out, b)
	}
	return out
}

// appliedEntries keeps the engine's entries but emits badge_earned only for
// badges this submission actually inserted.
func (s *ProgressionService) appliedEntries(outcome *progression.Outcome, badges []progression.BadgeDefinition, inserted []string) []progression.LogEntry {
	insertedSet := make(map[string]bool, len(inserted))
	for _, id := range inserted {
		insertedSet[id] = true
	}

	entries := make([]progression.LogEntry, 0, len(outcome.Entries))
	for _, e := range outcome.Entries {
		if e.Kind != progression.LogBadgeEarned {
			entries = append(entries, e)
		}
	}
	at := outcome.Entries[0].Timestamp
	for _, b := range badges {
		if insertedSet[b.ID] {
			entries = append(entries, progression.BadgeEntry(outcome.Snapshot.UserID, b, at))
		}
	}
	return entries
}

// replayEntries builds the entries of a submission whose activity turned
// out to be completed already.
func (s *ProgressionService) replayEntries(snapshot *progression.Snapshot, ev progression.Event) []progression.LogEntry {
	completed := snapshot.Clone()
	completed.Completed[ev.ActivityID] = ev.Kind
	outcome, err := s.Engine.Apply(completed, ev)
	if err != nil {
		// ev was validated before the transaction
		return nil
	}
	return outcome.Entries
}

func (s *ProgressionService) recordAward(ev progression.Event, r *SubmissionResult) {
	monitoring.XPAwarded.WithLabelValues(kindLabel(ev.Kind)).Add(float64(r.XPEarned))
	for _, b := range r.NewBadges {
		monitoring.BadgesAwarded.WithLabelValues(b.ID).Inc()
	}
	if r.LeveledUp {
		monitoring.LevelUps.Inc()
	}
}

func replayResult(submissionID string, ev progression.Event, snapshot *progression.Snapshot, entries []progression.LogEntry) *SubmissionResult {
	return &SubmissionResult{
		SubmissionID:     submissionID,
		ActivityID:       ev.ActivityID,
		AlreadyCompleted: true,
		PreviousLevel:    snapshot.Level,
		Level:            snapshot.Level,
		TotalXP:          snapshot.XP,
		NewBadges:        []progression.BadgeDefinition{},
		Entries:          entries,
	}
}

func withSubmission(entries []progression.LogEntry, submissionID string) []progression.LogEntry {
	out := make([]progression.LogEntry, len(entries))
	for i, e := range entries {
		e.SubmissionID = submissionID
		out[i] = e
	}
	return out
}

func badgeIDs(badges []progression.BadgeDefinition) []string {
	ids := make([]string, len(badges))
	for i, b := range badges {
		ids[i] = b.ID
	}
	return ids
}

func kindLabel(k progression.ActivityKind) string {
	if k.Valid() {
		return string(k)
	}
	return "unknown"
}
