package httpinput

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/pkg/apperrors"
)

const (
	maxLoggedBody  = 2048
	defaultMaxBody = 1 << 20
)

// Input is an HTTP ingest endpoint that hands request bodies to a Sink.
type Input struct {
	path       string
	listenAddr string
	maxBody    int64
	sink       inputs.Sink
	logger     zerolog.Logger
	server     *http.Server
}

// NewInput creates an HTTP input. listenAddr is optional; if set, Start binds to that address.
func NewInput(
	basePath string,
	description string,
	sink inputs.Sink,
	listenAddr string,
	logger zerolog.Logger,
) *Input {
	basePath = "/" + strings.Trim(strings.TrimSpace(basePath), "/")
	desc := strings.Trim(strings.TrimSpace(description), "/")
	path := strings.TrimSuffix(basePath, "/") + "/" + desc
	return &Input{
		path:       path,
		listenAddr: listenAddr,
		maxBody:    defaultMaxBody,
		sink:       sink,
		logger:     logger.With().Str("input", "http").Str("path", path).Logger(),
	}
}

func (i *Input) Path() string { return i.path }

func (i *Input) Mounted() bool { return i.listenAddr == "" }

func (i *Input) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			w.Header().Set("Allow", "POST, PUT")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, i.maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "read error", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			http.Error(w, "empty body", http.StatusBadRequest)
			return
		}
		if e := i.logger.Debug(); e.Enabled() {
			preview := string(body)
			if len(preview) > maxLoggedBody {
				preview = preview[:maxLoggedBody] + "..."
			}
			e.Int("bytes", len(body)).Str("body", preview).Msg("payload received")
		}
		if err := i.sink.Insert(r.Context(), body); err != nil {
			if apperrors.IsInvalidArgument(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			i.logger.Error().Err(err).Msg("store payload")
			http.Error(w, "failed to store payload", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

func (i *Input) Start(ctx context.Context) error {
	if i.listenAddr == "" {
		return nil
	}
	i.server = &http.Server{
		Addr:              i.listenAddr,
		Handler:           i.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := i.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			i.logger.Error().Err(err).Str("listen", i.listenAddr).Msg("listener stopped")
		}
	}()
	i.logger.Info().Str("listen", i.listenAddr).Msg("listening")
	return nil
}

func (i *Input) Stop() error {
	if i.server != nil {
		return i.server.Close()
	}
	return nil
}
