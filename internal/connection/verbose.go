package connection

import (
	"net/http"
	"time"

	"github.com/elsbrock/smartproxy/internal/log"
)

// verboseTransport logs every round trip, used when the debug option is set
type verboseTransport struct {
	next  http.RoundTripper
	conn  string
	iface string
}

func (t *verboseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log.Info("connection").
		Str("name", t.conn).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("interface", t.iface).
		Str("x_forwarded_for", req.Header.Get("X-Forwarded-For")).
		Msg("Sending request")

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		log.Info("connection").
			Str("name", t.conn).
			Str("url", req.URL.String()).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("Request failed")
		return nil, err
	}

	log.Info("connection").
		Str("name", t.conn).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Int64("content_length", resp.ContentLength).
		Dur("elapsed", time.Since(start)).
		Msg("Received response")
	return resp, nil
}
