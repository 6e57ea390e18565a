package connection

import (
	"context"
	"fmt"
	"os"
	"time"

	grab "github.com/cavaliergopher/grab/v3"
	"github.com/dustin/go-humanize"
	"github.com/elsbrock/smartproxy/internal/log"
)

// progressInterval is how often file download progress is logged
var progressInterval = 5 * time.Second

// createGrabClient wraps a prepared client so grab sends our headers
func (c *Connection) createGrabClient(ctx context.Context, url string) (*grab.Client, map[string][]string, error) {
	httpClient, req, err := c.PrepareRequest(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	client := grab.NewClient()
	client.HTTPClient = httpClient
	client.UserAgent = c.cfg.UserAgent

	return client, req.Header, nil
}

// DownloadFile streams url to dst, a file path or an existing directory,
// and returns the path written. It performs a single attempt; a failed
// attempt removes whatever it wrote.
func (c *Connection) DownloadFile(ctx context.Context, url, dst string) (string, error) {
	client, header, err := c.createGrabClient(ctx, url)
	if err != nil {
		return "", err
	}

	req, err := grab.NewRequest(dst, url)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true
	for key, values := range header {
		for _, v := range values {
			req.HTTPRequest.Header.Add(key, v)
		}
	}

	resp := client.Do(req)

	done := make(chan struct{})
	go c.monitorGrabProgress(ctx, resp, dst, done)
	err = resp.Err()
	close(done)

	if err != nil {
		c.removePartial(resp.Filename)
		return "", fmt.Errorf("download failed: %w", err)
	}

	log.Debug("connection").
		Str("name", c.name).
		Str("url", url).
		Str("file", resp.Filename).
		Str("size", humanize.Bytes(uint64(resp.BytesComplete()))).
		Dur("duration", resp.Duration()).
		Msg("File downloaded")

	return resp.Filename, nil
}

// removePartial deletes a file left behind by a failed transfer
func (c *Connection) removePartial(path string) {
	if path == "" {
		return
	}
	if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("connection").
			Str("name", c.name).
			Str("file", path).
			Err(err).
			Msg("Failed to remove partial file")
	}
}

// monitorGrabProgress logs download progress until done is closed.
// resp.Filename is only safe to read once the transfer has finished.
func (c *Connection) monitorGrabProgress(ctx context.Context, resp *grab.Response, dst string, done <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Info("connection").
				Str("name", c.name).
				Str("dst", dst).
				Float64("progress_percent", resp.Progress()*100).
				Str("downloaded", humanize.Bytes(uint64(resp.BytesComplete()))).
				Str("speed", humanize.Bytes(uint64(resp.BytesPerSecond()))+"/s").
				Str("eta", time.Until(resp.ETA()).Round(time.Second).String()).
				Msg("Download progress")
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}
