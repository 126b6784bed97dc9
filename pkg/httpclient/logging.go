package httpclient

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

var redacted = map[string]bool{"Authorization": true, "Cookie": true, "Proxy-Authorization": true}

func loggableHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		if redacted[k] {
			out[k] = "[redacted]"
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

// withLogging logs each request at debug level.
func withLogging(logger zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			logger.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Interface("headers", loggableHeaders(req.Header)).
				Msg("http client request")
			resp, err := next.RoundTrip(req)
			ev := logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Dur("elapsed", time.Since(start))
			if err != nil {
				ev.Err(err).Msg("http client request failed")
				return nil, err
			}
			ev.Int("status", resp.StatusCode).Msg("http client response")
			return resp, nil
		})
	}
}
