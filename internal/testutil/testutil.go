// Package testutil opens throwaway SQLite databases for repository and
// service tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"codesikho_backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// DB returns a migrated in-memory database private to tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:codesikho_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	// one connection keeps the shared in-memory database alive and avoids
	// SQLITE_BUSY between the test's goroutines
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// SeedUser provisions a progress row with the given totals.
func SeedUser(tb testing.TB, db *gorm.DB, userID string, xp, level int) *model.UserProgress {
	tb.Helper()
	p := &model.UserProgress{UserID: userID, DisplayName: userID, XP: xp, Level: level}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed user %s: %v", userID, err)
	}
	return p
}

// FailOn makes every statement of the given kind fail with err until the
// returned func is called. kind is one of "create", "update", "query".
func FailOn(tb testing.TB, db *gorm.DB, kind string, err error) func() {
	tb.Helper()
	name := fmt.Sprintf("testutil:fail_%s_%d", kind, dbSeq.Add(1))
	inject := func(tx *gorm.DB) { _ = tx.AddError(err) }

	var regErr error
	switch kind {
	case "create":
		regErr = db.Callback().Create().Before("gorm:create").Register(name, inject)
	case "update":
		regErr = db.Callback().Update().Before("gorm:update").Register(name, inject)
	case "query":
		regErr = db.Callback().Query().Before("gorm:query").Register(name, inject)
	default:
		tb.Fatalf("unknown callback kind %q", kind)
	}
	if regErr != nil {
		tb.Fatalf("register %s: %v", name, regErr)
	}

	return func() {
		var rmErr error
		switch kind {
		case "create":
			rmErr = db.Callback().Create().Remove(name)
		case "update":
			rmErr = db.Callback().Update().Remove(name)
		case "query":
			rmErr = db.Callback().Query().Remove(name)
		}
		if rmErr != nil {
			tb.Errorf("remove %s: %v", name, rmErr)
		}
	}
}
