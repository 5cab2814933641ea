package service

import (
	"context"
	"errors"
	"fmt"

	"codesikho_backend/internal/model"
	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/repository"
	"codesikho_backend/internal/util"
	"codesikho_backend/pkg/logger"

	"go.uber.org/zap"
)

type UserService struct {
	ProgressRepo *repository.ProgressRepository
	LogRepo      *repository.ActivityLogRepository
	Badges       *progression.Catalog
	Curve        progression.LevelCurve
}

func NewUserService(
	progressRepo *repository.ProgressRepository,
	logRepo *repository.ActivityLogRepository,
	badges *progression.Catalog,
	curve progression.LevelCurve,
) *UserService {
	return &UserService{
		ProgressRepo: progressRepo,
		LogRepo:      logRepo,
		Badges:       badges,
		Curve:        curve,
	}
}

type ProfileRequest struct {
	DisplayName string `json:"displayName" binding:"max=100"`
	Avatar      string `json:"avatar" binding:"omitempty,max=255"`
}

// Profile is the user's snapshot as shown to the client.
type Profile struct {
	UserID            string                        `json:"userId"`
	DisplayName       string                        `json:"displayName"`
	Avatar            string                        `json:"avatar"`
	XP                int                           `json:"xp"`
	Level             int                           `json:"level"`
	CurrentLevelXP    int                           `json:"currentLevelXp"`
	NextLevelXP       int                           `json:"nextLevelXp"`
	Badges            []progression.BadgeDefinition `json:"badges"`
	CompletedCount    int                           `json:"completedCount"`
	PerfectScoreCount int                           `json:"perfectScoreCount"`
}

// Provision creates an empty snapshot for a user the identity provider
// already knows.
func (s *UserService) Provision(ctx context.Context, userID string, req ProfileRequest) (*Profile, error) {
	if _, err := s.ProgressRepo.Provision(ctx, userID, req.DisplayName, req.Avatar); err != nil {
		if errors.Is(err, util.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: provision: %v", util.ErrPersistenceUnavailable, err)
	}
	logger.Log.Info("User progress provisioned", zap.String("userID", userID))
	return s.GetProfile(ctx, userID)
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.ProgressRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, wrapStoreErr("read profile", err)
	}
	snapshot, err := s.ProgressRepo.ReadSnapshot(ctx, userID)
	if err != nil {
		return nil, wrapStoreErr("read snapshot", err)
	}
	return s.profile(p, snapshot), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req ProfileRequest) (*Profile, error) {
	if err := s.ProgressRepo.UpdateProfile(ctx, userID, req.DisplayName, req.Avatar); err != nil {
		return nil, wrapStoreErr("update profile", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *UserService) profile(p *model.UserProgress, snapshot *progression.Snapshot) *Profile {
	badges := make([]progression.BadgeDefinition, 0, len(snapshot.BadgeIDs))
	for _, id := range snapshot.BadgeList(s.Badges) {
		if b, ok := s.Badges.ByID(id); ok {
			badges = append(badges, b)
		}
	}
	return &Profile{
		UserID:            p.UserID,
		DisplayName:       p.DisplayName,
		Avatar:            p.Avatar,
		XP:                snapshot.XP,
		Level:             snapshot.Level,
		CurrentLevelXP:    s.Curve.XPForLevel(snapshot.Level),
		NextLevelXP:       s.Curve.XPForLevel(snapshot.Level + 1),
		Badges:            badges,
		CompletedCount:    len(snapshot.Completed),
		PerfectScoreCount: snapshot.PerfectScoreCount,
	}
}

// RecentActivity returns the newest log entries first.
func (s *UserService) RecentActivity(ctx context.Context, userID string, limit int) ([]progression.LogEntry, error) {
	if _, err := s.ProgressRepo.FindByUserID(ctx, userID); err != nil {
		return nil, wrapStoreErr("read profile", err)
	}
	entries, err := s.LogRepo.ReadRecentLog(ctx, userID, limit)
	if err != nil {
		return nil, wrapStoreErr("read activity log", err)
	}
	return entries, nil
}

// Achievements reports progress toward every catalog badge.
func (s *UserService) Achievements(ctx context.Context, userID string) ([]progression.BadgeProgress, error) {
	snapshot, err := s.ProgressRepo.ReadSnapshot(ctx, userID)
	if err != nil {
		return nil, wrapStoreErr("read snapshot", err)
	}
	return progression.Progress(s.Badges, snapshot), nil
}

func wrapStoreErr(op string, err error) error {
	if errors.Is(err, util.ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", util.ErrPersistenceUnavailable, op, err)
}
