// Package pool bounds and health-checks the database connections handed to
// store drivers. Connections are verified on checkout and on return; when the
// pool is saturated past the acquire timeout, callers fall back to the shared
// *sql.DB so a busy pool degrades throughput instead of failing requests.
package pool

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Querier is the subset of database/sql operations drivers run through the
// pool. Both *sql.Conn and *sql.DB satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
}

// Stats is a point-in-time pool snapshot.
type Stats struct {
	Active int `json:"active_connections"`
	Idle   int `json:"idle_connections"`
	Max    int `json:"max_connections"`
}

// Config holds pool sizing and timeouts.
type Config struct {
	MaxConns       int
	AcquireTimeout time.Duration
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		MaxConns:       20,
		AcquireTimeout: 5 * time.Second,
	}
}

// Pool manages a bounded set of dedicated connections over a *sql.DB.
type Pool struct {
	db     *sql.DB
	config Config

	idle chan *sql.Conn

	mu     sync.Mutex
	active int
	closed bool
}

// Handle is a checked-out connection. Direct handles bypass the pool.
type Handle struct {
	conn   *sql.Conn
	db     *sql.DB
	direct bool
}

// Querier returns the object to run queries against.
func (h *Handle) Querier() Querier {
	if h.conn != nil {
		return h.conn
	}
	return h.db
}

// Direct reports whether this handle bypassed the pool.
func (h *Handle) Direct() bool {
	return h.direct
}

// New creates a pool over the given database handle.
func New(db *sql.DB, config Config) *Pool {
	if config.MaxConns <= 0 {
		config.MaxConns = DefaultConfig().MaxConns
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = DefaultConfig().AcquireTimeout
	}

	return &Pool{
		db:     db,
		config: config,
		idle:   make(chan *sql.Conn, config.MaxConns),
	}
}

// Acquire checks out a healthy connection. When the pool is exhausted for
// longer than the acquire timeout it returns a direct handle on the shared
// database object instead of failing.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	// Drain idle connections first, discarding any that fail the health check.
	for {
		select {
		case conn := <-p.idle:
			if err := conn.PingContext(ctx); err != nil {
				p.discard(conn)
				continue
			}
			return &Handle{conn: conn}, nil
		default:
		}
		break
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("pool is closed")
	}
	if p.active < p.config.MaxConns {
		p.active++
		p.mu.Unlock()

		conn, err := p.db.Conn(ctx)
		if err != nil {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
			return nil, errors.Wrap(err, "failed to open pooled connection")
		}
		return &Handle{conn: conn}, nil
	}
	p.mu.Unlock()

	// Pool saturated. Wait for a return, then fall back to a direct handle.
	timer := time.NewTimer(p.config.AcquireTimeout)
	defer timer.Stop()

	select {
	case conn := <-p.idle:
		if err := conn.PingContext(ctx); err != nil {
			p.discard(conn)
			slog.Warn("pooled connection failed health check, using direct connection")
			return &Handle{db: p.db, direct: true}, nil
		}
		return &Handle{conn: conn}, nil
	case <-timer.C:
		slog.Warn("connection pool exhausted, using direct connection",
			"max_connections", p.config.MaxConns)
		return &Handle{db: p.db, direct: true}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a handle to the pool. Unhealthy connections are closed
// instead of re-pooled.
func (p *Pool) Release(ctx context.Context, h *Handle) {
	if h == nil || h.conn == nil {
		return
	}

	if err := h.conn.PingContext(ctx); err != nil {
		p.discard(h.conn)
		return
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.discard(h.conn)
		return
	}

	select {
	case p.idle <- h.conn:
	default:
		p.discard(h.conn)
	}
}

// Stats returns the current pool snapshot.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	idle := len(p.idle)
	return Stats{
		Active: p.active - idle,
		Idle:   idle,
		Max:    p.config.MaxConns,
	}
}

// Close drains and closes all idle connections. Outstanding handles are
// closed as they are released.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case conn := <-p.idle:
			p.discard(conn)
		default:
			return
		}
	}
}

func (p *Pool) discard(conn *sql.Conn) {
	_ = conn.Close()
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
}
