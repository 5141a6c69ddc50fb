// Package fetcher downloads the published case-data and boundary files over
// HTTP with rate limiting and bounded retries.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the downloader.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// Downloader fetches files over HTTP with retry and rate limiting.
type Downloader struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// Result describes one completed download.
type Result struct {
	URL    string
	Path   string
	Bytes  int64
	SHA256 string
}

// New creates a Downloader with the given options.
func New(opts Options) *Downloader {
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "caseatlas/1.0"
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 2
	}
	return &Downloader{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// DownloadToFile fetches rawURL into path, creating parent directories. The
// returned Result carries the byte count and SHA-256 of the body.
func (d *Downloader) DownloadToFile(ctx context.Context, rawURL, path string) (*Result, error) {
	body, err := d.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "fetcher: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), body)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: write %s", path)
	}

	return &Result{
		URL:    rawURL,
		Path:   path,
		Bytes:  n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

func (d *Downloader) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", d.opts.UserAgent)

	var lastErr error
	for attempt := 0; attempt < d.opts.MaxRetries; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		resp, err := d.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("request failed, retrying",
				zap.String("component", "fetcher"),
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			d.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL)
			zap.L().Warn("retryable status, backing off",
				zap.String("component", "fetcher"),
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			d.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
		}

		return resp.Body, nil
	}

	return nil, eris.Wrap(lastErr, "fetcher: all retries exhausted")
}

func (d *Downloader) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	wait := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if wait > maxBackoff {
		wait = maxBackoff
	}
	wait += time.Duration(rand.Int63n(int64(wait) / 2))

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
