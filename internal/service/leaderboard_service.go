package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"codesikho_backend/internal/model"
	"codesikho_backend/internal/repository"
	"codesikho_backend/internal/util"
	"codesikho_backend/pkg/logger"
	"codesikho_backend/pkg/monitoring"
	"codesikho_backend/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const leaderboardGenKey = "leaderboard:gen"

type LeaderboardFilter struct {
	Metric    model.LeaderboardMetric `json:"metric"`
	Timeframe model.Timeframe         `json:"timeframe"`
}

// Normalize fills defaults and rejects unknown values.
func (f LeaderboardFilter) Normalize() (LeaderboardFilter, error) {
	if f.Metric == "" {
		f.Metric = model.MetricXP
	}
	if f.Timeframe == "" {
		f.Timeframe = model.TimeframeAllTime
	}
	if !f.Metric.Valid() {
		return f, fmt.Errorf("%w: metric %q", util.ErrInvalidFilter, f.Metric)
	}
	if !f.Timeframe.Valid() {
		return f, fmt.Errorf("%w: timeframe %q", util.ErrInvalidFilter, f.Timeframe)
	}
	return f, nil
}

type LeaderboardEntry struct {
	Rank int `json:"rank"`
	model.LeaderboardRow
}

type LeaderboardPage struct {
	Metric      model.LeaderboardMetric `json:"metric"`
	Timeframe   model.Timeframe         `json:"timeframe"`
	Entries     []LeaderboardEntry      `json:"entries"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

type UserRank struct {
	UserID     string                  `json:"userId"`
	Metric     model.LeaderboardMetric `json:"metric"`
	Timeframe  model.Timeframe         `json:"timeframe"`
	Rank       int                     `json:"rank"`
	Value      int64                   `json:"value"`
	TotalUsers int64                   `json:"totalUsers"`
}

type LeaderboardService struct {
	Repo  *repository.LeaderboardRepository
	Redis *redis.Client
	Now   func() time.Time

	cacheTTL atomic.Int64
}

// NewLeaderboardService builds the ranker; rdb may be nil to disable caching.
func NewLeaderboardService(repo *repository.LeaderboardRepository, rdb *redis.Client, cacheTTL time.Duration) *LeaderboardService {
	s := &LeaderboardService{Repo: repo, Redis: rdb, Now: time.Now}
	s.SetCacheTTL(cacheTTL)
	return s
}

// SetCacheTTL changes the cache lifetime; zero disables caching.
func (s *LeaderboardService) SetCacheTTL(d time.Duration) {
	s.cacheTTL.Store(int64(d))
}

func (s *LeaderboardService) CacheTTL() time.Duration {
	return time.Duration(s.cacheTTL.Load())
}

func (s *LeaderboardService) since(tf model.Timeframe) *time.Time {
	var days int
	switch tf {
	case model.TimeframeWeekly:
		days = 7
	case model.TimeframeMonthly:
		days = 30
	default:
		return nil
	}
	t := s.Now().UTC().AddDate(0, 0, -days)
	return &t
}

// Query returns the top limit users for filter. Ranks use competition
// ranking: a user's rank is one more than the number of users with a
// strictly greater value, so tied users share a rank. Ties are listed by
// user id.
func (s *LeaderboardService) Query(ctx context.Context, filter LeaderboardFilter, limit int) (page *LeaderboardPage, err error) {
	filter, err = filter.Normalize()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", util.ErrInvalidFilter)
	}

	ctx, span := tracing.StartSpan(ctx, "LeaderboardService.Query",
		attribute.String("metric", string(filter.Metric)),
		attribute.String("timeframe", string(filter.Timeframe)),
		attribute.Int("limit", limit))
	defer func() { tracing.EndSpan(span, err) }()

	key, cacheable := s.cacheKey(ctx, filter, limit)
	if cacheable {
		if cached, ok := s.readCache(ctx, key); ok {
			return cached, nil
		}
	}

	rows, err := s.Repo.QueryTopByMetric(ctx, filter.Metric, s.since(filter.Timeframe), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query leaderboard: %v", util.ErrPersistenceUnavailable, err)
	}

	page = &LeaderboardPage{
		Metric:      filter.Metric,
		Timeframe:   filter.Timeframe,
		Entries:     rankRows(rows),
		GeneratedAt: s.Now().UTC(),
	}
	if cacheable {
		s.writeCache(ctx, key, page)
	}
	return page, nil
}

// rankRows assigns competition ranks to rows sorted by value descending.
func rankRows(rows []model.LeaderboardRow) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(rows))
	for i, row := range rows {
		rank := i + 1
		if i > 0 && row.Value == rows[i-1].Value {
			rank = entries[i-1].Rank
		}
		entries[i] = LeaderboardEntry{Rank: rank, LeaderboardRow: row}
	}
	return entries
}

// RankOf returns the rank of one user, computed the same way as Query.
func (s *LeaderboardService) RankOf(ctx context.Context, userID string, filter LeaderboardFilter) (rank *UserRank, err error) {
	filter, err = filter.Normalize()
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "LeaderboardService.RankOf",
		attribute.String("user.id", userID),
		attribute.String("metric", string(filter.Metric)))
	defer func() { tracing.EndSpan(span, err) }()

	since := s.since(filter.Timeframe)
	rank = &UserRank{UserID: userID, Metric: filter.Metric, Timeframe: filter.Timeframe}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		row, err := s.Repo.MetricValueOf(gctx, userID, filter.Metric, since)
		if err != nil {
			return err
		}
		above, err := s.Repo.CountGreaterThan(gctx, filter.Metric, since, row.Value)
		if err != nil {
			return err
		}
		rank.Value = row.Value
		rank.Rank = int(above) + 1
		return nil
	})
	g.Go(func() error {
		n, err := s.Repo.CountUsers(gctx)
		rank.TotalUsers = n
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: rank user: %v", util.ErrPersistenceUnavailable, err)
	}
	return rank, nil
}

// Invalidate retires every cached page by bumping the generation.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Incr(ctx, leaderboardGenKey).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
	}
}

func (s *LeaderboardService) cacheKey(ctx context.Context, f LeaderboardFilter, limit int) (string, bool) {
	if s.Redis == nil || s.CacheTTL() <= 0 {
		return "", false
	}
	gen, err := s.Redis.Get(ctx, leaderboardGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		monitoring.LeaderboardCache.WithLabelValues("error").Inc()
		logger.Log.Debug("Leaderboard cache unavailable", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("leaderboard:%d:%s:%s:%d", gen, f.Metric, f.Timeframe, limit), true
}

func (s *LeaderboardService) readCache(ctx context.Context, key string) (*LeaderboardPage, bool) {
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			monitoring.LeaderboardCache.WithLabelValues("miss").Inc()
		} else {
			monitoring.LeaderboardCache.WithLabelValues("error").Inc()
		}
		return nil, false
	}
	var page LeaderboardPage
	if err := json.Unmarshal(data, &page); err != nil {
		monitoring.LeaderboardCache.WithLabelValues("error").Inc()
		return nil, false
	}
	monitoring.LeaderboardCache.WithLabelValues("hit").Inc()
	return &page, true
}

func (s *LeaderboardService) writeCache(ctx context.Context, key string, page *LeaderboardPage) {
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, s.CacheTTL()).Err(); err != nil {
		logger.Log.Debug("Failed to cache leaderboard", zap.Error(err))
	}
}
