package service

import (
	"context"
	"errors"
	"fmt"

	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/repository"
	"codesikho_backend/internal/util"

	"golang.org/x/sync/errgroup"
)

type StatsService struct {
	ProgressRepo *repository.ProgressRepository
	Curve        progression.LevelCurve
}

func NewStatsService(progressRepo *repository.ProgressRepository, curve progression.LevelCurve) *StatsService {
	return &StatsService{ProgressRepo: progressRepo, Curve: curve}
}

// GetStats loads the snapshot and history concurrently and aggregates them.
func (s *StatsService) GetStats(ctx context.Context, userID string) (*progression.DisplayStats, error) {
	var (
		snapshot *progression.Snapshot
		history  []progression.HistoryRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot, err = s.ProgressRepo.ReadSnapshot(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.ProgressRepo.ReadHistory(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load stats: %v", util.ErrPersistenceUnavailable, err)
	}

	stats := progression.ComputeStats(snapshot, history, s.Curve)
	return &stats, nil
}
