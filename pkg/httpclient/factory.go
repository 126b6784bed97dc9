package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Factory hands out builders that share one configured pool.
type Factory struct {
	cfg      Config
	pool     *Pool
	logger   zerolog.Logger
	wrappers []Middleware
}

type Option func(*Factory)

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// WithTransportWrapper decorates the pooled transport, closest to the
// network. newrelic.NewRoundTripper fits here.
func WithTransportWrapper(m Middleware) Option {
	return func(f *Factory) { f.wrappers = append(f.wrappers, m) }
}

func NewFactory(cfg Config, opts ...Option) *Factory {
	f := &Factory{cfg: cfg.withDefaults(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	f.pool = NewPool(f.cfg, f.logger)
	return f
}

func (f *Factory) Config() Config { return f.cfg }

func (f *Factory) Pool() *Pool { return f.pool }

// Builder returns a builder preloaded with the factory defaults.
func (f *Factory) Builder() *Builder {
	return &Builder{
		cfg:      f.cfg,
		pool:     f.pool,
		logger:   f.logger,
		headers:  defaultHeaders(f.cfg),
		wrappers: append([]Middleware(nil), f.wrappers...),
	}
}

func (f *Factory) Build(baseURL string) (*Client, error) {
	return f.Builder().BaseURL(baseURL).Build()
}

// BuildWithCustomization lets customize adjust the builder before the
// client is built.
func (f *Factory) BuildWithCustomization(baseURL string, customize func(*Builder)) (*Client, error) {
	b := f.Builder().BaseURL(baseURL)
	if customize != nil {
		customize(b)
	}
	return b.Build()
}

// Close shuts the shared pool down.
func (f *Factory) Close() { f.pool.Close() }

// New builds a standalone client with DefaultConfig and its own pool.
func New(baseURL string) (*Client, error) {
	f := NewFactory(DefaultConfig())
	c, err := f.Build(baseURL)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.ownsPool = true
	return c, nil
}

func NewFromURL(u *url.URL) (*Client, error) {
	if u == nil {
		return nil, fmt.Errorf("httpclient: nil base URL")
	}
	return New(u.String())
}

// Builder assembles one Client.
type Builder struct {
	cfg        Config
	pool       *Pool
	logger     zerolog.Logger
	baseURL    string
	headers    http.Header
	middleware []Middleware
	wrappers   []Middleware
	timeout    time.Duration
}

func (b *Builder) BaseURL(u string) *Builder {
	b.baseURL = u
	return b
}

// Header replaces the default value of key.
func (b *Builder) Header(key, value string) *Builder {
	b.headers.Set(key, value)
	return b
}

// Use adds middleware; the first added sees the request first.
func (b *Builder) Use(m ...Middleware) *Builder {
	b.middleware = append(b.middleware, m...)
	return b
}

// Timeout bounds a whole exchange including the body. Zero means none.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.timeout = d
	return b
}

// Logging overrides the configured request logging switch.
func (b *Builder) Logging(enabled bool) *Builder {
	b.cfg.EnableLogging = enabled
	return b
}

func (b *Builder) Build() (*Client, error) {
	var base *url.URL
	if b.baseURL != "" {
		u, err := url.Parse(b.baseURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: parse base URL: %w", err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("httpclient: base URL %q is not absolute", b.baseURL)
		}
		base = u
	}

	var rt http.RoundTripper = b.pool
	for _, w := range b.wrappers {
		rt = w(rt)
	}
	for i := len(b.middleware) - 1; i >= 0; i-- {
		rt = b.middleware[i](rt)
	}
	if b.cfg.EnableLogging {
		rt = withLogging(b.logger.With().Str("component", "http_client").Logger())(rt)
	}
	rt = withHeaders(b.headers.Clone())(rt)

	return &Client{
		http:    &http.Client{Transport: rt, Timeout: b.timeout},
		baseURL: base,
		pool:    b.pool,
	}, nil
}
