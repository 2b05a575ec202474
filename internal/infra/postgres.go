package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// PoolConfig sizes the metrics-db connection pool. The pool only serves the
// analysis workflow's chunk search and metrics queries, so it stays small.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (p PoolConfig) withDefaults() PoolConfig {
	if p.MaxConns <= 0 {
		p.MaxConns = 8
	}
	if p.MinConns <= 0 {
		p.MinConns = 1
	}
	if p.MaxConnLifetime <= 0 {
		p.MaxConnLifetime = time.Hour
	}
	if p.MaxConnIdleTime <= 0 {
		p.MaxConnIdleTime = 15 * time.Minute
	}
	return p
}

// NewPostgresDB opens a pgx pool against the metrics database and verifies
// connectivity. pgvector types are registered on every connection so chunk
// embeddings scan straight into vector columns.
func NewPostgresDB(ctx context.Context, dsn string, pool PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool = pool.withDefaults()
	cfg.MaxConns = int32(pool.MaxConns)
	cfg.MinConns = int32(pool.MinConns)
	cfg.MaxConnLifetime = pool.MaxConnLifetime
	cfg.MaxConnIdleTime = pool.MaxConnIdleTime
	cfg.ConnConfig.RuntimeParams["application_name"] = "research-orchestrator"

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping metrics db: %w", err)
	}
	return db, nil
}
