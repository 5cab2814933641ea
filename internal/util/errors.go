package util

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserExists             = errors.New("user progress already exists")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrInvalidToken           = errors.New("invalid token")
)

var ErrInvalidFilter = errors.New("invalid leaderboard filter")
