package httpinput

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/pkg/apperrors"
)

type memSink struct {
	mu   sync.Mutex
	msgs [][]byte
	err  error
}

func (s *memSink) Insert(_ context.Context, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	s.msgs = append(s.msgs, cp)
	return nil
}

func (s *memSink) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return nil
	}
	return s.msgs[len(s.msgs)-1]
}

func mountedServer(t *testing.T, sink *memSink) *httptest.Server {
	t.Helper()
	reg := inputs.NewRegistry(zerolog.Nop())
	reg.Register(&Factory{})

	mux := http.NewServeMux()
	specs := []inputs.InputSpec{
		{Type: "http", Target: inputs.TargetSystemLog, Description: "system-logs", Config: inputs.Config{"base_path": "/ingest"}},
	}
	resolve := func(inputs.Target) (inputs.Sink, error) { return sink, nil }
	if err := reg.StartAll(context.Background(), specs, resolve, func(p string, h http.Handler) { mux.Handle(p, h) }); err != nil {
		t.Fatalf("start inputs: %v", err)
	}
	t.Cleanup(func() { _ = reg.StopAll() })

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPInput_InsertsBodyIntoSink(t *testing.T) {
	sink := &memSink{}
	srv := mountedServer(t, sink)

	body := []byte(`{"serviceName":"api","logLevel":"INFO","message":"up"}`)
	resp, err := http.Post(srv.URL+"/ingest/system-logs", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected %d, got %d", http.StatusAccepted, resp.StatusCode)
	}
	if got := sink.Last(); !bytes.Equal(got, body) {
		t.Fatalf("expected inserted %q, got %q", string(body), string(got))
	}
}

func TestHTTPInput_StatusFromSinkError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid payload", fmt.Errorf("%w: decode payload", apperrors.ErrInvalidArgument), http.StatusBadRequest},
		{"store failure", apperrors.Wrap("save system log", errors.New("conn closed")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := mountedServer(t, &memSink{err: tc.err})

			resp, err := http.Post(srv.URL+"/ingest/system-logs", "application/json", strings.NewReader(`{}`))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestHTTPInput_RejectsEmptyBodyAndGet(t *testing.T) {
	sink := &memSink{}
	in := NewInput("/ingest/", "/raw/", sink, "", zerolog.Nop())
	if in.Path() != "/ingest/raw" {
		t.Fatalf("unexpected path %q", in.Path())
	}

	rec := httptest.NewRecorder()
	in.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/raw", http.NoBody))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	in.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ingest/raw", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("get: expected 405, got %d", rec.Code)
	}
	if sink.Last() != nil {
		t.Fatal("sink must not receive rejected requests")
	}
}

func TestHTTPInput_BodyLimit(t *testing.T) {
	f := &Factory{}
	in, err := f.Create(inputs.Config{"description": "raw", "max_body_bytes": 8}, &memSink{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ep := in.(inputs.HTTPEndpointInput)

	rec := httptest.NewRecorder()
	ep.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, ep.Path(), strings.NewReader(`{"message":"too long"}`)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestFactory_RequiresDescription(t *testing.T) {
	if _, err := (&Factory{}).Create(inputs.Config{}, &memSink{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing description")
	}
}
