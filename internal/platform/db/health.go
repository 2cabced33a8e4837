package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// UndefinedTable is the SQLSTATE for a missing relation.
const UndefinedTable = "42P01"

const (
	healthTimeout    = 3 * time.Second
	msgDatabaseDown  = "Database unavailable"
	statusOK         = "ok"
	statusUnmigrated = "unmigrated"
)

// Pinger is the part of *pgxpool.Pool the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PoolStats is a snapshot of connection pool usage.
type PoolStats struct {
	Total             int32 `json:"total"`
	Idle              int32 `json:"idle"`
	InUse             int32 `json:"inUse"`
	Max               int32 `json:"max"`
	Acquires          int64 `json:"acquires"`
	AcquireDurationMS int64 `json:"acquireDurationMs"`
}

// Health is the body of GET /health/db.
type Health struct {
	Status        string     `json:"status"`
	SchemaVersion int        `json:"schemaVersion"`
	LatencyMS     int64      `json:"latencyMs"`
	Pool          *PoolStats `json:"pool,omitempty"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		Total:             stat.TotalConns(),
		Idle:              stat.IdleConns(),
		InUse:             stat.AcquiredConns(),
		Max:               stat.MaxConns(),
		Acquires:          stat.AcquireCount(),
		AcquireDurationMS: stat.AcquireDuration().Milliseconds(),
	}
}

// CheckHealth pings the database and reads the latest applied migration. A
// database that was never migrated is reachable but reported as unmigrated.
func CheckHealth(ctx context.Context, p Pinger) (*Health, error) {
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	h := &Health{Status: statusOK}
	err := p.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&h.SchemaVersion)
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == UndefinedTable:
		h.Status = statusUnmigrated
	case err != nil:
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	h.LatencyMS = time.Since(start).Milliseconds()

	if pool, ok := p.(*pgxpool.Pool); ok {
		h.Pool = GetPoolStats(pool)
	}
	return h, nil
}

// HealthHandler answers 503 when the database cannot be reached so load
// balancers drain the instance.
func HealthHandler(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		h, err := CheckHealth(ctx, p)
		if err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, msgDatabaseDown).SetInternal(err)
		}
		return c.JSON(http.StatusOK, h)
	}
}
