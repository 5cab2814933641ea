package repository

import (
	"context"
	"fmt"
	"time"

	"codesikho_backend/internal/model"
	"codesikho_backend/internal/util"

	"gorm.io/gorm"
)

type LeaderboardRepository struct {
	DB *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{DB: db}
}

const leaderboardColumns = "user_progress.user_id, user_progress.display_name, user_progress.avatar, " +
	"user_progress.level, user_progress.xp, user_progress.badge_count, user_progress.challenge_count"

// metricExpr returns the SQL value ranked for metric. A nil since means
// all time; otherwise only activity at or after since counts.
func metricExpr(metric model.LeaderboardMetric, since *time.Time) (string, []interface{}, error) {
	if since == nil {
		switch metric {
		case model.MetricXP:
			return "user_progress.xp", nil, nil
		case model.MetricBadges:
			return "user_progress.badge_count", nil, nil
		case model.MetricChallenges:
			return "user_progress.challenge_count", nil, nil
		}
		return "", nil, fmt.Errorf("unknown leaderboard metric %q", metric)
	}

	switch metric {
	case model.MetricXP:
		return "COALESCE((SELECT SUM(ca.xp_earned) FROM completed_activities ca " +
			"WHERE ca.user_id = user_progress.user_id AND ca.completed_at >= ?), 0)", []interface{}{*since}, nil
	case model.MetricBadges:
		return "(SELECT COUNT(*) FROM user_badges ub " +
			"WHERE ub.user_id = user_progress.user_id AND ub.earned_at >= ?)", []interface{}{*since}, nil
	case model.MetricChallenges:
		return "(SELECT COUNT(*) FROM completed_activities ca " +
			"WHERE ca.user_id = user_progress.user_id AND ca.completed_at >= ?)", []interface{}{*since}, nil
	}
	return "", nil, fmt.Errorf("unknown leaderboard metric %q", metric)
}

// QueryTopByMetric returns the top limit users by metric, ties broken by
// user id ascending.
func (r *LeaderboardRepository) QueryTopByMetric(ctx context.Context, metric model.LeaderboardMetric, since *time.Time, limit int) ([]model.LeaderboardRow, error) {
	expr, args, err := metricExpr(metric, since)
	if err != nil {
		return nil, err
	}

	var rows []model.LeaderboardRow
	err = r.DB.WithContext(ctx).
		Table("user_progress").
		Select(leaderboardColumns+", "+expr+" AS value", args...).
		Order("value DESC, user_progress.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// MetricValueOf returns the row of one user with its metric value.
func (r *LeaderboardRepository) MetricValueOf(ctx context.Context, userID string, metric model.LeaderboardMetric, since *time.Time) (*model.LeaderboardRow, error) {
	expr, args, err := metricExpr(metric, since)
	if err != nil {
		return nil, err
	}

	var rows []model.LeaderboardRow
	err = r.DB.WithContext(ctx).
		Table("user_progress").
		Select(leaderboardColumns+", "+expr+" AS value", args...).
		Where("user_progress.user_id = ?", userID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, util.ErrUserNotFound
	}
	return &rows[0], nil
}

// CountGreaterThan counts users whose metric is strictly above value.
func (r *LeaderboardRepository) CountGreaterThan(ctx context.Context, metric model.LeaderboardMetric, since *time.Time, value int64) (int64, error) {
	expr, args, err := metricExpr(metric, since)
	if err != nil {
		return 0, err
	}

	var n int64
	err = r.DB.WithContext(ctx).
		Table("user_progress").
		Where(expr+" > ?", append(args, value)...).
		Count(&n).Error
	return n, err
}

// CountUsers returns the number of provisioned users.
func (r *LeaderboardRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.UserProgress{}).Count(&n).Error
	return n, err
}
