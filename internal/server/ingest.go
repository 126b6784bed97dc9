package server

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// IngestDispatcher routes requests under the ingest base path to the
// handlers of mounted HTTP inputs, keyed by their full path.
type IngestDispatcher struct {
	mu       sync.RWMutex
	handlers map[string]http.Handler
}

// NewIngestDispatcher returns a new IngestDispatcher.
func NewIngestDispatcher() *IngestDispatcher {
	return &IngestDispatcher{
		handlers: make(map[string]http.Handler),
	}
}

func normalizePath(p string) string {
	p = strings.TrimSuffix(p, "/")
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return p
}

// Mount registers a handler for the given path (e.g. "/ingest/system-logs").
func (d *IngestDispatcher) Mount(path string, h http.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[normalizePath(path)] = h
}

// Paths lists the mounted paths, sorted.
func (d *IngestDispatcher) Paths() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for p := range d.handlers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (d *IngestDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	h, ok := d.handlers[normalizePath(r.URL.Path)]
	d.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.ServeHTTP(w, r)
}
