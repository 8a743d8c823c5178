package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolLocker provides PostgreSQL advisory locks over a dedicated pgx pool,
// independent of the gorm connection. The worker uses it so a lock held for
// the duration of a long job does not pin a gorm connection, and its Stat
// feeds the connection pool gauges.
type PoolLocker struct {
	pool *pgxpool.Pool
}

func OpenPoolLocker(ctx context.Context, dsn string) (*PoolLocker, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PoolLocker{pool: pool}, nil
}

func (l *PoolLocker) Close() error {
	l.pool.Close()
	return nil
}

func (l *PoolLocker) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

// Stat exposes the underlying pool statistics.
func (l *PoolLocker) Stat() *pgxpool.Stat {
	return l.pool.Stat()
}

func (l *PoolLocker) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := l.pool.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok)
	return ok, err
}

func (l *PoolLocker) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := l.pool.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key).Scan(&ok)
	return ok, err
}
