package httpclient

import "net/http"

// Middleware decorates the transport of a client.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func defaultHeaders(cfg Config) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Accept-Charset", "utf-8")
	h.Set("User-Agent", cfg.UserAgent)
	h.Set("Origin", cfg.Domain)
	h.Set("Referer", cfg.Domain)
	h.Set("DNT", "1")
	return h
}

// withHeaders sets each of headers on requests that do not already carry it.
func withHeaders(headers http.Header) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			var out *http.Request
			for k, vs := range headers {
				if len(vs) == 0 || req.Header.Get(k) != "" {
					continue
				}
				if out == nil {
					out = req.Clone(req.Context())
				}
				out.Header[k] = append([]string(nil), vs...)
			}
			if out == nil {
				out = req
			}
			return next.RoundTrip(out)
		})
	}
}
