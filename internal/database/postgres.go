package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectAttempts = 10
	retryDelay      = 2 * time.Second
)

// NewPool connects to Postgres, retrying while the server comes up.
// History traffic is one write per ended poll, so the pool stays small.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			log.Printf("DB connect attempt %d/%d failed: %v", attempt, connectAttempts, err)
			if !sleepCtx(ctx, retryDelay) {
				return nil, ctx.Err()
			}
			continue
		}
		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			log.Printf("DB ping attempt %d/%d failed: %v", attempt, connectAttempts, err)
			if !sleepCtx(ctx, retryDelay) {
				return nil, ctx.Err()
			}
			continue
		}
		log.Printf("Database connected (attempt %d)", attempt)
		return pool, nil
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
