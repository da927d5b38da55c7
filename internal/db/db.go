// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statements lists every prepared statement by name. Callers refer to them by
// name only, so the SQL lives in one place.
var Statements = map[string]string{
	"health_check": "SELECT 1",

	// Expiry pass: items whose expiry falls in [$1, $2], with the food name and
	// the owning fridge's group. A missing group comes back as ''.
	"expiring_inventory": `
		SELECT fi.id::text,
		       fi.expirydate,
		       COALESCE(f.name, ''),
		       COALESCE(fi.fridge_id::text, ''),
		       COALESCE(fr.group_id::text, '')
		FROM fridge_items fi
		LEFT JOIN foods f    ON f.id = fi.food_id
		LEFT JOIN fridges fr ON fr.id = fi.fridge_id
		WHERE fi.expirydate >= $1 AND fi.expirydate <= $2
		ORDER BY fi.expirydate, fi.id`,

	// Expiry pass: members of a group with their raw device tokens. Tokens are
	// returned as stored; cleanup happens in Go.
	"group_member_tokens": `
		SELECT gm.user_id::text,
		       COALESCE(array_agg(COALESCE(dt.token, '')) FILTER (WHERE dt.user_id IS NOT NULL), '{}')
		FROM group_members gm
		LEFT JOIN device_tokens dt ON dt.user_id = gm.user_id
		WHERE gm.group_id = $1
		GROUP BY gm.user_id
		ORDER BY gm.user_id`,

	// Device registration
	"upsert_device_token": `
		INSERT INTO device_tokens (user_id, token, platform, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, token)
		DO UPDATE SET platform = EXCLUDED.platform, updated_at = NOW()`,
}

// registerPreparedStatements prepares every entry of Statements on a new
// connection.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
