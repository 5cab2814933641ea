package controller

import (
	"errors"

	"codesikho_backend/internal/content"
	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	var invalid *progression.InvalidEventError
	switch {
	case errors.As(err, &invalid):
		util.BadRequest(ctx, invalid.Error())
	case errors.Is(err, content.ErrUnknownActivity), errors.Is(err, util.ErrInvalidFilter):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx, "User progress not found, provision it with POST /api/users")
	case errors.Is(err, util.ErrUserExists):
		util.Conflict(ctx, "User progress already exists")
	case errors.Is(err, util.ErrPersistenceUnavailable):
		util.LogUnavailable(ctx, err)
	default:
		util.LogInternalError(ctx, err)
	}
}

func currentUser(ctx *gin.Context) *util.Claims {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
	}
	return user
}
