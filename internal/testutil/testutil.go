// Package testutil provides helpers for integration tests.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/karnoweb/viewable/internal/calendar"
	"github.com/karnoweb/viewable/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetViewsSchema drops and recreates the views schema for tests.
func ResetViewsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", "000001_views.down.sql")
	upPath := filepath.Join(root, "migrations", "000001_views.up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestViewEvent creates a view event with sensible defaults, viewed now.
func NewTestViewEvent(t testing.TB, entityType, entityID string) *model.ViewEvent {
	t.Helper()
	now := time.Now().UTC()
	return &model.ViewEvent{
		ID:         ulid.Make().String(),
		EntityType: entityType,
		EntityID:   entityID,
		Collection: "",
		VisitorKey: UniqueVisitorKey("visitor"),
		IP:         "203.0.113.10",
		UserAgent:  "testagent/1.0",
		ViewedAt:   now,
	}
}

// NewTestViewEventAt creates a view event with a fixed visitor and time.
func NewTestViewEventAt(t testing.TB, entityType, entityID, visitorKey string, viewedAt time.Time) *model.ViewEvent {
	t.Helper()
	event := NewTestViewEvent(t, entityType, entityID)
	event.VisitorKey = visitorKey
	event.ViewedAt = viewedAt
	return event
}

// NewTestAggregate creates a daily Gregorian aggregate for one entity.
func NewTestAggregate(t testing.TB, entityType, entityID string, day time.Time, total, unique int64) *model.Aggregate {
	t.Helper()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return &model.Aggregate{
		EntityType:  entityType,
		EntityID:    entityID,
		Collection:  "",
		Calendar:    calendar.Gregorian,
		Granularity: calendar.Daily,
		PeriodKey:   start.Format("2006-01-02"),
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 0, 1).Add(-time.Nanosecond),
		TotalViews:  total,
		UniqueViews: unique,
	}
}

// UniqueVisitorKey generates a unique visitor key for tests, shaped like
// the SHA256 digests the recording path produces.
func UniqueVisitorKey(prefix string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())))
	return hex.EncodeToString(sum[:])
}

// UniqueEntityID generates a unique entity id for tests.
func UniqueEntityID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
