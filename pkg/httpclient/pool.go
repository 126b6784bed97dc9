package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// ErrPoolExhausted is returned when no connection slot frees up within the
// pending acquire timeout.
var ErrPoolExhausted = errors.New("httpclient: connection pool exhausted")

// Pool is a named connection pool shared by the clients of a Factory. It
// bounds in-flight requests to MaxConnections and retires connections that
// outlive MaxLifetime.
type Pool struct {
	name      string
	cfg       Config
	transport *http.Transport
	sem       *semaphore.Weighted
	inFlight  atomic.Int64
	logger    zerolog.Logger

	mu    sync.Mutex
	conns map[*trackedConn]struct{}

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// PoolStats is a point-in-time view of a Pool.
type PoolStats struct {
	Name            string `json:"name"`
	MaxConnections  int    `json:"maxConnections"`
	OpenConnections int    `json:"openConnections"`
	InFlight        int64  `json:"inFlight"`
}

// NewPool builds the transport and starts the background eviction sweep.
func NewPool(cfg Config, logger zerolog.Logger) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		name:   cfg.PoolName,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConnections)),
		logger: logger.With().Str("component", "http_pool").Str("pool", cfg.PoolName).Logger(),
		conns:  make(map[*trackedConn]struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: cfg.KeepAlive}
	p.transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           p.dialContext(dialer),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxConnections,
		MaxIdleConnsPerHost:   cfg.MaxConnections,
		MaxConnsPerHost:       cfg.MaxConnections,
		IdleConnTimeout:       cfg.KeepAlive,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: time.Second,
	}
	go p.sweep()
	return p
}

func (p *Pool) Name() string { return p.name }

func (p *Pool) dialContext(d *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		tc := &trackedConn{Conn: conn, pool: p, openedAt: time.Now(), writeTimeout: p.cfg.WriteTimeout}
		p.mu.Lock()
		p.conns[tc] = struct{}{}
		p.mu.Unlock()
		openConnections.WithLabelValues(p.name).Inc()
		return tc, nil
	}
}

func (p *Pool) forget(tc *trackedConn) {
	p.mu.Lock()
	_, ok := p.conns[tc]
	delete(p.conns, tc)
	p.mu.Unlock()
	if ok {
		openConnections.WithLabelValues(p.name).Dec()
	}
}

// RoundTrip waits for a free slot, then sends req on the pooled transport.
// The slot is held until the response body is closed.
func (p *Pool) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), p.cfg.PendingAcquireTimeout)
	err := p.sem.Acquire(ctx, 1)
	cancel()
	if err != nil {
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		return nil, ErrPoolExhausted
	}
	p.inFlight.Add(1)

	resp, err := p.transport.RoundTrip(req)
	if err != nil {
		p.release()
		return nil, err
	}
	resp.Body = &releasingBody{ReadCloser: resp.Body, release: p.release}
	return resp, nil
}

func (p *Pool) release() {
	p.inFlight.Add(-1)
	p.sem.Release(1)
}

func (p *Pool) sweep() {
	defer close(p.done)
	ticker := time.NewTicker(p.cfg.EvictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case now := <-ticker.C:
			p.evict(now)
		}
	}
}

// evict closes the idle connections of the transport once any open
// connection is older than MaxLifetime. Busy connections are caught by a
// later sweep after they return to the idle set.
func (p *Pool) evict(now time.Time) {
	p.mu.Lock()
	expired := 0
	for tc := range p.conns {
		if now.Sub(tc.openedAt) > p.cfg.MaxLifetime {
			expired++
		}
	}
	p.mu.Unlock()
	if expired == 0 {
		return
	}
	p.transport.CloseIdleConnections()
	p.logger.Debug().Int("expired", expired).Msg("evicted idle connections")
}

func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	open := len(p.conns)
	p.mu.Unlock()
	return PoolStats{
		Name:            p.name,
		MaxConnections:  p.cfg.MaxConnections,
		OpenConnections: open,
		InFlight:        p.inFlight.Load(),
	}
}

// Close stops the sweep and closes idle connections. In-flight requests
// finish normally.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.stop)
		<-p.done
		p.transport.CloseIdleConnections()
	})
}

// trackedConn applies the write timeout to every write and unregisters
// itself from the pool on close.
type trackedConn struct {
	net.Conn
	pool         *Pool
	openedAt     time.Time
	writeTimeout time.Duration
	closeOnce    sync.Once
}

func (c *trackedConn) Write(b []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}

func (c *trackedConn) Close() error {
	c.closeOnce.Do(func() { c.pool.forget(c) })
	return c.Conn.Close()
}

type releasingBody struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
