package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codesikho_backend/internal/model"
	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB    *gorm.DB
	Curve progression.LevelCurve
}

func NewProgressRepository(db *gorm.DB, curve progression.LevelCurve) *ProgressRepository {
	return &ProgressRepository{DB: db, Curve: curve}
}

// DeltaResult reports what WriteSnapshotDelta actually changed.
type DeltaResult struct {
	// Applied is false when the completion row already existed, i.e. a
	// concurrent submission of the same activity won the race.
	Applied          bool
	InsertedBadgeIDs []string
	XP               int
	Level            int
}

// Transaction runs fn in one database transaction.
func (r *ProgressRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

// Provision creates the progress row of a new user.
func (r *ProgressRepository) Provision(ctx context.Context, userID, displayName, avatar string) (*model.UserProgress, error) {
	p := &model.UserProgress{
		UserID:      userID,
		DisplayName: displayName,
		Avatar:      avatar,
		Level:       1,
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrUserExists
	}
	return p, nil
}

func (r *ProgressRepository) FindByUserID(ctx context.Context, userID string) (*model.UserProgress, error) {
	var p model.UserProgress
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) UpdateProfile(ctx context.Context, userID, displayName, avatar string) error {
	res := r.DB.WithContext(ctx).Model(&model.UserProgress{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"display_name": displayName, "avatar": avatar})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrUserNotFound
	}
	return nil
}

// ReadSnapshot loads the full progression state of a user.
func (r *ProgressRepository) ReadSnapshot(ctx context.Context, userID string) (*progression.Snapshot, error) {
	p, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	db := r.DB.WithContext(ctx)
	var badgeIDs []string
	if err := db.Model(&model.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_id", &badgeIDs).Error; err != nil {
		return nil, err
	}
	var completed []model.CompletedActivity
	if err := db.Select("activity_id", "kind").Where("user_id = ?", userID).Find(&completed).Error; err != nil {
		return nil, err
	}

	s := progression.NewSnapshot(userID)
	s.XP = p.XP
	s.Level = p.Level
	s.PerfectScoreCount = p.PerfectScoreCount
	for _, id := range badgeIDs {
		s.BadgeIDs[id] = struct{}{}
	}
	for _, c := range completed {
		s.Completed[c.ActivityID] = progression.ActivityKind(c.Kind)
	}
	return s, nil
}

// ReadHistory returns first completions, most recent first.
func (r *ProgressRepository) ReadHistory(ctx context.Context, userID string) ([]progression.HistoryRecord, error) {
	var rows []model.CompletedActivity
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	history := make([]progression.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		history = append(history, progression.HistoryRecord{
			ActivityID:       row.ActivityID,
			Kind:             progression.ActivityKind(row.Kind),
			Score:            row.Score,
			XPEarned:         row.XPEarned,
			TimeSpentSeconds: row.TimeSpent,
			CompletedAt:      row.CompletedAt,
		})
	}
	return history, nil
}

// WriteSnapshotDelta applies d inside tx. The completion row is inserted
// first; if it already exists nothing else is written and Applied is false.
// XP, counters and badges are increments or set-adds, and the level is
// re-derived from the stored XP so concurrent deltas cannot lower it.
func (r *ProgressRepository) WriteSnapshotDelta(tx *gorm.DB, userID string, d progression.Delta, at time.Time) (DeltaResult, error) {
	var result DeltaResult

	guard := &model.CompletedActivity{
		UserID:      userID,
		ActivityID:  d.CompletedActivityID,
		Kind:        string(d.Kind),
		Score:       d.Score,
		XPEarned:    d.XP,
		TimeSpent:   d.TimeSpentSeconds,
		CompletedAt: at,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(guard)
	if res.Error != nil {
		return result, fmt.Errorf("insert completion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return result, nil
	}
	result.Applied = true

	for _, id := range d.AddBadgeIDs {
		b := &model.UserBadge{UserID: userID, BadgeID: id, EarnedAt: at}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(b)
		if res.Error != nil {
			return result, fmt.Errorf("insert badge %s: %w", id, res.Error)
		}
		if res.RowsAffected > 0 {
			result.InsertedBadgeIDs = append(result.InsertedBadgeIDs, id)
		}
	}

	updates := map[string]interface{}{
		"xp":              gorm.Expr("xp + ?", d.XP),
		"challenge_count": gorm.Expr("challenge_count + ?", 1),
		"badge_count":     gorm.Expr("badge_count + ?", len(result.InsertedBadgeIDs)),
		"updated_at":      at,
	}
	if d.Score == progression.PerfectScore {
		updates["perfect_score_count"] = gorm.Expr("perfect_score_count + ?", 1)
	}
	res = tx.Model(&model.UserProgress{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return result, fmt.Errorf("update progress: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return result, util.ErrUserNotFound
	}

	var p model.UserProgress
	if err := tx.Select("xp", "level").Where("user_id = ?", userID).First(&p).Error; err != nil {
		return result, fmt.Errorf("reload progress: %w", err)
	}
	level := r.Curve.LevelForXP(p.XP)
	if level < d.SetLevelIfGreater {
		level = d.SetLevelIfGreater
	}
	if level > p.Level {
		err := tx.Model(&model.UserProgress{}).
			Where("user_id = ? AND level < ?", userID, level).
			Update("level", level).Error
		if err != nil {
			return result, fmt.Errorf("update level: %w", err)
		}
		p.Level = level
	}

	result.XP = p.XP
	result.Level = p.Level
	return result, nil
}
