package pg

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// PoolConfig configures the connection pool
type PoolConfig struct {
	ConnStr string
}

// ConnectionPool wraps a pgx pool
type ConnectionPool struct {
	conn *pgxpool.Pool
}

// NewConnectionPool connects and pings the database
func NewConnectionPool(ctx context.Context, cfg PoolConfig) (*ConnectionPool, error) {
	dbpool, err := pgxpool.New(ctx, cfg.ConnStr)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &ConnectionPool{conn: dbpool}, nil
}

// GetConn returns the underlying pool
func (p *ConnectionPool) GetConn() *pgxpool.Pool {
	return p.conn
}

// Close closes all connections
func (p *ConnectionPool) Close() {
	p.conn.Close()
}

// Ping checks a connection can be acquired and used
func (p *ConnectionPool) Ping(ctx context.Context) error {
	c, err := p.conn.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return c.Ping(ctx)
}

// Migrate applies the embedded schema files in name order. Files are idempotent.
func (p *ConnectionPool) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		script, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := p.conn.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", f, err)
		}
	}

	return nil
}
