// Package db opens the Postgres pool behind the picture, group and distortion repos.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"picture-analysis/internal/shared/telemetry"
)

// Role names the kind of process holding the pool; each gets its own sizing.
type Role string

const (
	RoleService Role = "service"
	RoleLambda  Role = "lambda"
	RoleMigrate Role = "migrate"
)

// Pool is the database/sql pool configuration plus the startup ping budget.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
	PingTimeout time.Duration
}

var pools = map[Role]Pool{
	RoleService: {MaxOpen: 10, MaxIdle: 5, MaxLifetime: time.Hour, MaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second},
	// one batch per Lambda instance
	RoleLambda:  {MaxOpen: 2, MaxIdle: 1, MaxLifetime: 15 * time.Minute, MaxIdleTime: 30 * time.Second, PingTimeout: 3 * time.Second},
	RoleMigrate: {MaxOpen: 1, MaxIdle: 1, MaxLifetime: time.Hour, MaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second},
}

var (
	openDB = sql.Open

	sharedMu sync.Mutex
	shared   *sql.DB
)

// RuntimeRole returns RoleLambda inside AWS Lambda and RoleService elsewhere.
func RuntimeRole() Role {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return RoleLambda
	}
	return RoleService
}

// PoolFor returns the defaults for role with PA_DB_* overrides applied.
func PoolFor(role Role) Pool {
	p, ok := pools[role]
	if !ok {
		p = pools[RoleService]
	}
	overrideInt("PA_DB_MAX_OPEN", &p.MaxOpen)
	overrideInt("PA_DB_MAX_IDLE", &p.MaxIdle)
	overrideDuration("PA_DB_MAX_LIFETIME", &p.MaxLifetime)
	overrideDuration("PA_DB_MAX_IDLE_TIME", &p.MaxIdleTime)
	overrideDuration("PA_DB_PING_TIMEOUT", &p.PingTimeout)
	return p
}

// Open connects to databaseURL and pings it within p.PingTimeout.
func Open(ctx context.Context, databaseURL string, p Pool) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}
	conn, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	p.apply(conn)

	timeout := p.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	telemetry.Info("db.connected", map[string]any{"max_open": p.MaxOpen, "max_idle": p.MaxIdle})
	return conn, nil
}

// Shared returns one pool per process, opening it on first success.
// Warm Lambda invocations reuse it.
func Shared(ctx context.Context, databaseURL string, p Pool) (*sql.DB, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		return shared, nil
	}
	conn, err := Open(ctx, databaseURL, p)
	if err != nil {
		return nil, err
	}
	shared = conn
	return shared, nil
}

func (p Pool) apply(conn *sql.DB) {
	if p.MaxOpen > 0 {
		conn.SetMaxOpenConns(p.MaxOpen)
	}
	if p.MaxIdle > 0 {
		conn.SetMaxIdleConns(p.MaxIdle)
	}
	if p.MaxLifetime > 0 {
		conn.SetConnMaxLifetime(p.MaxLifetime)
	}
	if p.MaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(p.MaxIdleTime)
	}
}

func overrideInt(key string, dst *int) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		telemetry.Warn("db.env.ignored", map[string]any{"key": key, "value": raw})
		return
	}
	*dst = v
}

func overrideDuration(key string, dst *time.Duration) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		telemetry.Warn("db.env.ignored", map[string]any{"key": key, "value": raw})
		return
	}
	*dst = v
}
