package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"incident-backend/internal/shared/telemetry"
)

// Profile names the kind of process that owns a pool.
type Profile string

const (
	// ProfileServer is the long-running API or worker process. Inside Lambda
	// it is promoted to ProfileLambda.
	ProfileServer Profile = "server"
	// ProfileLambda keeps the pool tiny and shares it across invocations.
	ProfileLambda Profile = "lambda"
	// ProfileMigrate is a one-shot schema migration.
	ProfileMigrate Profile = "migrate"
)

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var profileDefaults = map[Profile]Options{
	ProfileServer: {
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
	},
	ProfileLambda: {
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 30 * time.Second,
		ConnMaxLifetime: 15 * time.Minute,
		PingTimeout:     3 * time.Second,
	},
	ProfileMigrate: {
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
	},
}

var (
	openDB = sql.Open

	shared struct {
		mu      sync.Mutex
		ready   *sync.Cond
		db      *sql.DB
		opening bool
	}
)

func init() {
	shared.ready = sync.NewCond(&shared.mu)
}

// IsLambdaRuntime reports whether the current process is running in AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// ResolveProfile promotes ProfileServer to ProfileLambda inside Lambda.
func ResolveProfile(p Profile) Profile {
	if p == ProfileServer && IsLambdaRuntime() {
		return ProfileLambda
	}
	return p
}

// OptionsFor returns the pool defaults for p, overridden by DB_* env vars.
// Unknown profiles fall back to the server defaults.
func OptionsFor(p Profile) Options {
	opts, ok := profileDefaults[p]
	if !ok {
		opts = profileDefaults[ProfileServer]
	}
	if v, ok := readEnvInt("DB_MAX_OPEN_CONNS"); ok {
		opts.MaxOpenConns = v
	}
	if v, ok := readEnvInt("DB_MAX_IDLE_CONNS"); ok {
		opts.MaxIdleConns = v
	}
	if v, ok := readEnvDuration("DB_CONN_MAX_LIFETIME"); ok {
		opts.ConnMaxLifetime = v
	}
	if v, ok := readEnvDuration("DB_CONN_MAX_IDLE_TIME"); ok {
		opts.ConnMaxIdleTime = v
	}
	if v, ok := readEnvDuration("DB_PING_TIMEOUT"); ok {
		opts.PingTimeout = v
	}
	return opts
}

// Open connects with the pool settings of p. Lambda processes get one
// handle per execution environment; everything else gets a fresh pool the
// caller must close.
func Open(ctx context.Context, databaseURL string, p Profile) (*sql.DB, error) {
	p = ResolveProfile(p)
	opts := OptionsFor(p)
	if p == ProfileLambda {
		return sharedHandle(ctx, databaseURL, opts)
	}
	return Connect(ctx, databaseURL, opts)
}

// Connect opens a pgx-backed pool and pings it.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(db, opts)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logPoolStats(db, "db.pool.init")
	return db, nil
}

// sharedHandle returns the process-wide pool, opening it on first use.
// Concurrent callers wait for the opener; a failed open is retried by the
// next caller.
func sharedHandle(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	shared.mu.Lock()
	for shared.opening && shared.db == nil {
		shared.ready.Wait()
	}
	if shared.db != nil {
		db := shared.db
		shared.mu.Unlock()
		telemetry.Info("db.singleton.reuse", nil)
		return db, nil
	}
	shared.opening = true
	shared.mu.Unlock()

	db, err := Connect(ctx, databaseURL, opts)

	shared.mu.Lock()
	shared.opening = false
	if err == nil {
		shared.db = db
	}
	shared.ready.Broadcast()
	shared.mu.Unlock()

	if err != nil {
		return nil, err
	}
	telemetry.Info("db.singleton.init", nil)
	return db, nil
}

func applyOptions(db *sql.DB, opts Options) {
	fallback := profileDefaults[ProfileServer]
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = fallback.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = fallback.MaxIdleConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = fallback.ConnMaxLifetime
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func logPoolStats(db *sql.DB, label string) {
	stats := db.Stats()
	telemetry.Info(label, map[string]any{
		"open":     stats.OpenConnections,
		"in_use":   stats.InUse,
		"idle":     stats.Idle,
		"wait":     stats.WaitCount,
		"max_open": stats.MaxOpenConnections,
	})
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("db.env.invalid", map[string]any{"key": key, "error": err.Error()})
		return 0, false
	}
	return val, true
}

func readEnvDuration(key string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("db.env.invalid", map[string]any{"key": key, "error": err.Error()})
		return 0, false
	}
	return val, true
}
