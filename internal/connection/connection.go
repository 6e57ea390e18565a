package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/elsbrock/smartproxy/internal/config"
	"github.com/elsbrock/smartproxy/internal/log"
	"github.com/elsbrock/smartproxy/internal/rotator"
)

const (
	// ViaHeader is the signature of the forwarding proxy we pretend to be
	ViaHeader = "1.1 proxy:3128 (squid/2.6.STABLE5)"

	// CacheControlHeader is what a caching proxy sends on revalidation
	CacheControlHeader = "max-age=0"
)

// Connection issues requests with one configuration, rotating among the
// configured interfaces. It is safe for concurrent use.
type Connection struct {
	name     string
	cfg      *config.Config
	rotator  *rotator.Rotator
	resolver Resolver

	mu            sync.Mutex
	rng           *rand.Rand
	privatePrefix string
}

// New creates a Connection from cfg. The configuration is copied, later
// changes to cfg do not affect the connection.
func New(name string, cfg *config.Config) *Connection {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Connection{
		name:     name,
		cfg:      cfg.Clone(),
		rotator:  rotator.New(cfg.Interfaces),
		resolver: SystemResolver{},
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
	c.privatePrefix = c.randomPrivatePrefix()

	log.Debug("connection").
		Str("name", name).
		Strs("interfaces", cfg.Interfaces).
		Bool("emulate_proxy", cfg.EmulateProxy).
		Str("private_prefix", c.privatePrefix).
		Msg("Connection created")

	return c
}

// Name returns the registry name of the connection
func (c *Connection) Name() string {
	return c.name
}

// Config returns a copy of the configuration the connection was built from
func (c *Connection) Config() *config.Config {
	return c.cfg.Clone()
}

// NextInterface returns the next interface in rotation, false if none is active
func (c *Connection) NextInterface() (string, bool) {
	return c.rotator.Next()
}

// BlockInterface takes iface out of the rotation
func (c *Connection) BlockInterface(iface string) {
	c.rotator.Block(iface)
}

// UnblockInterface puts iface back at the end of the rotation
func (c *Connection) UnblockInterface(iface string) {
	c.rotator.Unblock(iface)
}

// ActiveInterfaces returns the interfaces currently in rotation
func (c *Connection) ActiveInterfaces() []string {
	return c.rotator.Active()
}

// BlockedInterfaces returns the interfaces taken out of rotation
func (c *Connection) BlockedInterfaces() []string {
	return c.rotator.Blocked()
}

// PrepareRequest builds a client and a GET request for url with the
// connection's timeouts, redirect policy, headers and the next interface.
func (c *Connection) PrepareRequest(ctx context.Context, url string) (*http.Client, *http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.EmulateProxy {
		req.Header.Set("Via", ViaHeader)
		req.Header.Set("Cache-Control", CacheControlHeader)
		req.Header.Set("X-Forwarded-For", c.RandomPrivateIP())
	}

	iface, _ := c.rotator.Next()
	client, err := c.createHTTPClient(iface)
	if err != nil {
		return nil, nil, err
	}

	return client, req, nil
}

// createHTTPClient creates a client bound to iface ("" binds to nothing)
func (c *Connection) createHTTPClient(iface string) (*http.Client, error) {
	dialer := &net.Dialer{
		Timeout:   c.cfg.ConnectTimeoutDuration(),
		KeepAlive: 30 * time.Second,
	}
	if iface != "" {
		ip, err := c.resolver.Resolve(iface)
		if err != nil {
			return nil, err
		}
		dialer.LocalAddr = &net.TCPAddr{IP: ip}
	}

	var transport http.RoundTripper = &http.Transport{
		DialContext:           dialer.DialContext,
		DisableKeepAlives:     true, // one client per request
		TLSHandshakeTimeout:   c.cfg.ConnectTimeoutDuration(),
		ExpectContinueTimeout: 1 * time.Second,
	}
	if c.cfg.Debug {
		transport = &verboseTransport{next: transport, conn: c.name, iface: iface}
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: c.checkRedirect,
	}, nil
}

// checkRedirect applies follow_location and max_redirects
func (c *Connection) checkRedirect(req *http.Request, via []*http.Request) error {
	if !c.cfg.FollowLocation {
		return http.ErrUseLastResponse
	}
	if len(via) > c.cfg.MaxRedirects {
		return NewTooManyRedirectsError(c.cfg.MaxRedirects)
	}
	return nil
}

// Download fetches url and returns the body. Network errors and non-2xx
// responses are returned as errors, never as content, except that a 3xx
// is the content when follow_location is off.
func (c *Connection) Download(ctx context.Context, url string) ([]byte, error) {
	client, req, err := c.PrepareRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode, c.cfg.FollowLocation) {
		// drain before close
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

func isSuccess(code int, follow bool) bool {
	if code >= 200 && code <= 299 {
		return true
	}
	return !follow && code >= 300 && code <= 399
}

// IsHTTPError reports whether err carries a non-2xx response
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
