package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/openrangelabs/middleware/internal/config"
	"github.com/openrangelabs/middleware/internal/handler"
	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/internal/infrastructure/inputs/amqpinput"
	"github.com/openrangelabs/middleware/internal/infrastructure/inputs/httpinput"
	"github.com/openrangelabs/middleware/internal/ingest"
	"github.com/openrangelabs/middleware/internal/response"
	"github.com/openrangelabs/middleware/internal/retention"
	"github.com/openrangelabs/middleware/internal/storage"
	"github.com/openrangelabs/middleware/pkg/httpclient"
	"github.com/openrangelabs/middleware/pkg/logs"
	"github.com/openrangelabs/middleware/pkg/messaging"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/users"
)

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores are the repositories behind the three services.
type Stores struct {
	UserLogs    logs.UserLogRepository
	SystemLogs  logs.SystemLogRepository
	PortalUsers users.Repository
	// DB is optional.
	DB Pinger
}

// Server holds the Echo app and the components started with it.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config

	logger      zerolog.Logger
	db          Pinger
	registry    *inputs.Registry
	dispatcher  *IngestDispatcher
	router      *ingest.Router
	httpClients *httpclient.Factory
	archive     *storage.Archive
	retention   *retention.Job

	mu        sync.Mutex
	broker    *amqp.Connection
	publisher *messaging.Publisher
}

// New builds the Echo app, the services and the input registry. nr may be
// nil. Nothing is started until Open or Run.
func New(cfg *config.Config, stores Stores, logger zerolog.Logger, nr *newrelic.Application) (*Server, error) {
	s := &Server{
		Config:     cfg,
		logger:     logger,
		db:         stores.DB,
		registry:   inputs.NewRegistry(logger),
		dispatcher: NewIngestDispatcher(),
	}

	userLogs := logs.NewUserLogService(stores.UserLogs, logger)
	systemLogs := logs.NewSystemLogService(stores.SystemLogs, logger)
	portal := users.NewService(stores.PortalUsers, logger)
	s.router = ingest.NewRouter(userLogs, systemLogs, portal, logger)

	clientOpts := []httpclient.Option{httpclient.WithLogger(logger)}
	if nr != nil {
		clientOpts = append(clientOpts, httpclient.WithTransportWrapper(newrelic.NewRoundTripper))
	}
	s.httpClients = httpclient.NewFactory(cfg.HTTPClient, clientOpts...)

	archive, err := storage.NewArchive(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	s.archive = archive

	if cfg.Retention.Enabled {
		var archiver retention.Archiver
		if archive != nil {
			archiver = archive
		}
		s.retention = retention.NewJob(cfg.Retention, userLogs, systemLogs, portal, archiver, logger)
	}

	s.registry.Register(&httpinput.Factory{})
	s.registry.Register(&amqpinput.Factory{Open: s.openChannel})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	mapper := response.NewMapper(logger, cfg.Primary.Environment().IsDevelopmentLike())
	mapper.Exceptions = systemLogs
	mapper.ServiceName = cfg.Observability.ServiceName
	e.HTTPErrorHandler = mapper.Handle
	e.Use(middleware.Recover(), middleware.RequestID(), requestLogger(logger))
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.Server.CORSAllowedOrigins}))
	}
	if nr != nil {
		e.Use(newRelic(nr))
	}
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	(&handler.UserLogHandler{Service: userLogs}).Register(v1.Group("/user-logs"))
	(&handler.SystemLogHandler{Service: systemLogs}).Register(v1.Group("/system-logs"))
	(&handler.PortalUserHandler{Service: portal}).Register(v1.Group("/portal-users"))
	(&handler.InputHandler{Registry: s.registry}).Register(v1.Group("/inputs"))

	archives := &handler.ArchiveHandler{}
	if archive != nil {
		archives.Archive = archive
	}
	if s.retention != nil {
		archives.Retention = s.retention
	}
	archives.Register(v1)

	events := &handler.EventHandler{}
	if cfg.Messaging.Enabled {
		events.Publisher = s
	}
	events.Register(v1.Group("/events"))

	e.Any(s.basePath()+"/*", echo.WrapHandler(s.dispatcher))

	s.Echo = e
	return s, nil
}

func (s *Server) basePath() string {
	p := "/" + strings.Trim(s.Config.Inputs.BasePath, "/")
	if p == "/" {
		return "/ingest"
	}
	return p
}

func (s *Server) openChannel() (amqpinput.Channel, error) {
	s.mu.Lock()
	conn := s.broker
	s.mu.Unlock()
	if conn == nil || conn.IsClosed() {
		return nil, errors.New("broker is not connected")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Specs lists the inputs started for the configuration.
func (s *Server) Specs() []inputs.InputSpec {
	var specs []inputs.InputSpec
	if s.Config.Inputs.HTTPEnabled {
		for _, t := range []struct {
			path   string
			target inputs.Target
		}{
			{"user-logs", inputs.TargetUserLog},
			{"system-logs", inputs.TargetSystemLog},
			{"portal-users", inputs.TargetPortalUser},
		} {
			specs = append(specs, inputs.InputSpec{
				Type:        "http",
				Target:      t.target,
				Description: t.path,
				Config:      inputs.Config{"base_path": s.basePath()},
			})
		}
	}
	if s.Config.Messaging.Enabled && s.Config.Messaging.Consume {
		for _, q := range []struct {
			queue  messaging.QueueName
			target inputs.Target
		}{
			{messaging.QueueUserLogs, inputs.TargetUserLog},
			{messaging.QueueSystemLogs, inputs.TargetSystemLog},
			{messaging.QueuePortalUser, inputs.TargetPortalUser},
		} {
			specs = append(specs, inputs.InputSpec{
				Type:        "amqp",
				Target:      q.target,
				Description: s.Config.Observability.ServiceName + "-" + string(q.target),
				Config: inputs.Config{
					"queue":    string(q.queue),
					"prefetch": s.Config.Messaging.Prefetch,
				},
			})
		}
	}
	return specs
}

// Open connects to the broker when messaging is enabled, prepares the
// archive bucket and starts every input.
func (s *Server) Open(ctx context.Context) error {
	if s.Config.Messaging.Enabled {
		if err := s.connectBroker(); err != nil {
			return err
		}
	}
	if s.archive != nil {
		if err := s.archive.EnsureBucket(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("archive bucket unavailable, uploads may fail")
		}
	}
	if err := s.registry.StartAll(ctx, s.Specs(), s.router.Sink, s.dispatcher.Mount); err != nil {
		return fmt.Errorf("start inputs: %w", err)
	}
	s.logger.Info().
		Strs("types", s.registry.ListRegistered()).
		Strs("ingest_paths", s.dispatcher.Paths()).
		Msg("inputs started")
	return nil
}

func (s *Server) connectBroker() error {
	conn, err := messaging.Dial(s.Config.Messaging.Broker, s.Config.Observability.ServiceName)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if s.Config.Messaging.DeclareTopology {
		if err := messaging.DefaultTopology().Declare(ch); err != nil {
			_ = conn.Close()
			return err
		}
	}
	s.mu.Lock()
	s.broker = conn
	s.publisher = messaging.NewPublisher(ch, s.Config.Observability.ServiceName)
	s.mu.Unlock()
	s.logger.Info().Str("host", s.Config.Messaging.Broker.Host).Msg("connected to broker")
	return nil
}

// PublishUserEvent sends ev to the portal user queue over the broker
// connection opened by Open.
func (s *Server) PublishUserEvent(ctx context.Context, ev model.UserEvent) (model.UserEvent, error) {
	s.mu.Lock()
	p := s.publisher
	s.mu.Unlock()
	if p == nil {
		return ev, echo.NewHTTPError(http.StatusServiceUnavailable, "broker is not connected")
	}
	return p.PublishUserEvent(ctx, ev)
}

// Run opens the server's components and serves until ctx is done, then
// shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Open(ctx); err != nil {
		return errors.Join(err, s.Close())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + s.Config.Server.Port
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if s.retention != nil {
		g.Go(func() error { return s.retention.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(s.Echo.Shutdown(shutdownCtx), s.Close())
	})
	return g.Wait()
}

// Close stops the inputs, then the broker connection and the outbound
// client pool.
func (s *Server) Close() error {
	err := s.registry.StopAll()
	s.mu.Lock()
	conn := s.broker
	s.broker, s.publisher = nil, nil
	s.mu.Unlock()
	if conn != nil {
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
			err = errors.Join(err, fmt.Errorf("close broker: %w", cerr))
		}
	}
	s.httpClients.Close()
	return err
}

func (s *Server) health(c echo.Context) error {
	body := map[string]any{
		"status":     "ok",
		"inputs":     len(s.registry.Running()),
		"httpClient": s.httpClients.Pool().Stats(),
	}
	code := http.StatusOK
	if s.db != nil {
		if err := s.db.Ping(c.Request().Context()); err != nil {
			body["status"] = "degraded"
			body["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			body["database"] = "ok"
		}
	}
	s.mu.Lock()
	if s.broker != nil {
		body["broker"] = !s.broker.IsClosed()
	}
	s.mu.Unlock()
	return response.Send(c, code, body, "")
}
