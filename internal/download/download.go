// Package download wraps connection downloads in a retry loop that survives
// transient failures and anti-automation bans.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/elsbrock/smartproxy/internal/config"
	"github.com/elsbrock/smartproxy/internal/connection"
	"github.com/elsbrock/smartproxy/internal/log"
)

// maxBanScanSize bounds how much of a downloaded file is searched for ban
// signatures. Challenge pages are small; larger files are real content.
const maxBanScanSize = 1 << 20

// Fetcher downloads URLs through a named connection of a registry
type Fetcher struct {
	registry *connection.Registry
	name     string
	cfg      *config.Config
	clock    clock.Clock
	metrics  *Metrics

	// sleep waits out a cooldown; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithClock sets the clock used for cooldowns
func WithClock(c clock.Clock) Option {
	return func(f *Fetcher) {
		f.clock = c
	}
}

// WithMetrics records loop activity in m
func WithMetrics(m *Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher creates a Fetcher using the connection registered under name.
// cfg supplies the retry budget, cooldown and ban signatures; it also
// creates the connection if name is not registered yet.
func NewFetcher(registry *connection.Registry, name string, cfg *config.Config, opts ...Option) *Fetcher {
	if cfg == nil {
		cfg = config.Default()
	}
	f := &Fetcher{
		registry: registry,
		name:     name,
		cfg:      cfg.Clone(),
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.sleep = f.wait
	return f
}

// attemptFunc performs one attempt and reports the state it ended in along
// with the size of the content on success
type attemptFunc func(ctx context.Context, conn *connection.Connection) (State, int64, error)

// Fetch returns the body of url. Transient failures are retried at once,
// bans after a cooldown; both consume the tries budget unless max_bans is
// set. The only errors returned are budget exhaustion and cancellation.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := f.run(ctx, url, func(ctx context.Context, conn *connection.Connection) (State, int64, error) {
		b, err := conn.Download(ctx, url)
		if err != nil {
			return StateTransientFailure, 0, err
		}
		if len(b) == 0 {
			return StateTransientFailure, 0, NewEmptyResponseError(url)
		}
		if sig, banned := f.banSignature(b); banned {
			return StateBanned, 0, NewBanDetectedError(url, sig)
		}
		body = b
		return StateSucceeded, int64(len(b)), nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// FetchFile downloads url into dst, a file path or a directory, with the
// same retry semantics as Fetch. It returns the path written.
func (f *Fetcher) FetchFile(ctx context.Context, url, dst string) (string, error) {
	var path string
	err := f.run(ctx, url, func(ctx context.Context, conn *connection.Connection) (State, int64, error) {
		p, err := conn.DownloadFile(ctx, url, dst)
		if err != nil {
			return StateTransientFailure, 0, err
		}

		state, size, err := f.inspectFile(url, p)
		if state != StateSucceeded {
			if rmErr := os.Remove(p); rmErr != nil {
				log.Warn("download").
					Str("path", p).
					Err(rmErr).
					Msg("Failed to remove rejected file")
			}
			return state, 0, err
		}
		path = p
		return StateSucceeded, size, nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// inspectFile applies the empty and ban checks of Fetch to a downloaded file
func (f *Fetcher) inspectFile(url, path string) (State, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return StateTransientFailure, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return StateTransientFailure, 0, NewEmptyResponseError(url)
	}
	if info.Size() > maxBanScanSize {
		return StateSucceeded, info.Size(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return StateTransientFailure, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if sig, banned := f.banSignature(data); banned {
		return StateBanned, 0, NewBanDetectedError(url, sig)
	}
	return StateSucceeded, info.Size(), nil
}

// run drives the attempt loop
func (f *Fetcher) run(ctx context.Context, url string, attempt attemptFunc) error {
	fetchID := uuid.NewString()
	conn := f.registry.GetOrCreate(f.name, f.cfg)

	tries := f.cfg.MaxTries
	bansLeft := f.cfg.MaxBans
	separateBans := f.cfg.MaxBans > 0
	attempts, bans := 0, 0
	var lastErr error

	for {
		if err := ctx.Err(); err != nil {
			return f.cancelled(fetchID, url, attempts, err)
		}

		// Attempting
		if tries <= 0 {
			f.metrics.exhausted(f.name, TypeRetryBudgetExhausted)
			log.Error("download").
				Str("fetch_id", fetchID).
				Str("url", url).
				Int("tries", attempts).
				Str("state", StateExhaustedFatal.String()).
				Msg("Giving up, retry budget exhausted")
			return NewRetryBudgetExhaustedError(url, attempts, lastErr)
		}
		tries--
		attempts++
		f.metrics.attempt(f.name)

		log.Info("download").
			Str("fetch_id", fetchID).
			Str("url", url).
			Int("attempt", attempts).
			Int("tries_left", tries).
			Msg("Downloading")

		state, size, err := attempt(ctx, conn)
		switch state {
		case StateSucceeded:
			f.metrics.success(f.name)
			log.Info("download").
				Str("fetch_id", fetchID).
				Str("url", url).
				Int("attempt", attempts).
				Str("size", humanize.Bytes(uint64(size))).
				Msg("Download completed")
			return nil

		case StateBanned:
			lastErr = err
			bans++
			f.metrics.ban(f.name)

			if separateBans {
				tries++ // bans do not spend tries when they have their own budget
				bansLeft--
				if bansLeft <= 0 {
					f.metrics.exhausted(f.name, TypeBanBudgetExhausted)
					log.Error("download").
						Str("fetch_id", fetchID).
						Str("url", url).
						Int("bans", bans).
						Str("state", StateExhaustedFatal.String()).
						Msg("Giving up, ban budget exhausted")
					return NewBanBudgetExhaustedError(url, attempts, bans)
				}
			} else if tries <= 0 {
				// no attempt left to wait for
				continue
			}

			cooldown := f.cfg.CooldownDuration()
			log.Warn("download").
				Str("fetch_id", fetchID).
				Str("url", url).
				Int("attempt", attempts).
				Dur("cooldown", cooldown).
				Str("state", StateBanned.String()).
				Msg("Banned, cooling down before retry")

			if err := f.sleep(ctx, cooldown); err != nil {
				return f.cancelled(fetchID, url, attempts, err)
			}
			f.metrics.cooldown(f.name, cooldown)

		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return f.cancelled(fetchID, url, attempts, ctxErr)
			}
			lastErr = err
			reason := failureReason(err)
			f.metrics.failure(f.name, reason)
			log.Warn("download").
				Str("fetch_id", fetchID).
				Str("url", url).
				Int("attempt", attempts).
				Int("tries_left", tries).
				Str("reason", reason).
				Str("state", StateTransientFailure.String()).
				Err(err).
				Msg("No content received, trying again")
		}
	}
}

func (f *Fetcher) cancelled(fetchID, url string, attempts int, cause error) error {
	log.Info("download").
		Str("fetch_id", fetchID).
		Str("url", url).
		Int("tries", attempts).
		Msg("Download cancelled")
	return NewFetchCancelledError(url, attempts, cause)
}

// wait blocks for d or until ctx is done
func (f *Fetcher) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := f.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// banSignature returns the first configured ban signature found in body
func (f *Fetcher) banSignature(body []byte) (string, bool) {
	for _, sig := range f.cfg.BanSignatures {
		if bytes.Contains(body, []byte(sig)) {
			return sig, true
		}
	}
	return "", false
}

// failureReason names the kind of transient failure for logs and metrics
func failureReason(err error) string {
	if err == nil {
		return "unknown"
	}
	if isType(err, TypeEmptyResponse) {
		return "empty_response"
	}
	if _, ok := connection.IsHTTPError(err); ok {
		return "http_status"
	}
	var connErr *connection.ConnectionError
	if errors.As(err, &connErr) {
		return "setup"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "network"
}
