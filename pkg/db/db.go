// pkg/db/db.go
package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stratus/pkg/config"
)

// MustConnect opens the audit-store pool, or returns nil when no
// DATABASE_URL is configured (in-memory dev fallback).
func MustConnect(s config.Settings, log *zap.SugaredLogger) *pgxpool.Pool {
	if s.DatabaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(context.Background(), s.DatabaseURL)
	if err != nil {
		log.Fatalw("pg connect", "err", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalw("pg ping", "err", err)
	}
	log.Infow("postgres ready", "host", redactDSN(s.DatabaseURL))
	return pool
}

// MustRedis opens the document-cache client, or returns nil when no
// REDIS_URL is configured.
func MustRedis(s config.Settings, log *zap.SugaredLogger) *redis.Client {
	if s.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(s.RedisURL)
	if err != nil {
		log.Fatalw("redis parse", "err", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("redis ping", "err", err)
	}
	log.Infow("redis ready", "addr", opts.Addr)
	return cli
}

func redactDSN(dsn string) string {
	if i := strings.Index(dsn, "@"); i > 0 {
		return "***@" + dsn[i+1:]
	}
	return dsn
}
