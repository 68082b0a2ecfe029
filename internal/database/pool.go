package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/pkg/logger"
)

const DefaultAcquireTimeout = 10 * time.Second

// Pool keeps one Connection per URL. Ensure sets a URL up; Connect only hands
// out connections that already exist.
type Pool struct {
	mu             sync.Mutex
	conns          map[string]*Connection
	acquireTimeout time.Duration
	logger         *logger.Logger
	open           func(ctx context.Context, rawURL string) (Platform, error)
}

func NewPool(acquireTimeout time.Duration, log *logger.Logger) *Pool {
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Pool{
		conns:          make(map[string]*Connection),
		acquireTimeout: acquireTimeout,
		logger:         log,
		open:           Open,
	}
}

// Ensure opens a connection for rawURL unless one is already set up. Opening
// is bounded by the acquire timeout.
func (p *Pool) Ensure(ctx context.Context, rawURL string) (*Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[rawURL]; ok {
		return conn, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	platform, err := p.open(openCtx, rawURL)
	if err != nil {
		if errors.Is(openCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &dberr.ConnectError{Kind: dberr.AcquireTimeout, URL: rawURL, Err: err}
		}
		return nil, err
	}

	conn := NewConnection(platform, p.logger)
	p.conns[rawURL] = conn
	p.logger.WithPlatform(platform.Name()).Infof("Pool ready for %s", dberr.Redact(rawURL))
	return conn, nil
}

// Connect returns the connection set up by Ensure.
func (p *Pool) Connect(ctx context.Context, rawURL string) (*Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ok := p.conns[rawURL]
	if !ok {
		return nil, &dberr.ConnectError{Kind: dberr.NoSuchPool, URL: rawURL}
	}
	return conn, nil
}

// Close closes every connection and empties the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for url, conn := range p.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.conns, url)
	}
	return errors.Join(errs...)
}
