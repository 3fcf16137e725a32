package artwork

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/tessro/artwall/internal/core"
)

// DownloadError reports an art download that ended with a non-2xx status.
type DownloadError struct {
	URL        string
	StatusCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// SelectImageURL picks the art to download: the first image (Spotify lists
// the largest first), else the last one. Returns "" for an empty list.
func SelectImageURL(images []core.Image) string {
	if len(images) == 0 {
		return ""
	}
	if images[0].URL != "" {
		return images[0].URL
	}
	return images[len(images)-1].URL
}

// Downloader fetches album art into the cache directory.
type Downloader struct {
	client *retryablehttp.Client
	cache  *Cache
	logger *zap.Logger
}

// NewDownloader creates a downloader writing into cache. Transient
// transport errors and 5xx responses are retried.
func NewDownloader(cache *Cache, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = leveledLogger{logger.Sugar()}
	// Hand the final response back so the status can be reported.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Downloader{client: client, cache: cache, logger: logger}
}

// Download fetches url into the per-track file and returns its absolute
// path. Redirects are followed; a final non-2xx status is a *DownloadError.
func (d *Downloader) Download(ctx context.Context, trackID, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("track %s has no album art", trackID)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DownloadError{URL: url, StatusCode: resp.StatusCode}
	}

	path, err := d.cache.Path(trackID, extension(resp.Header.Get("Content-Type"), url))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write beside the target so the display never reads a half-written image.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".art-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save album art: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save album art: %w", err)
	}

	d.logger.Info("downloaded album art",
		zap.String("track", trackID),
		zap.String("size", humanize.Bytes(uint64(n))),
		zap.String("path", path),
	)
	return path, nil
}

// extension picks a file extension from the content type, then the URL.
func extension(contentType, url string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		}
	}

	switch ext := strings.ToLower(filepath.Ext(url)); ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return ext
	}
	return ".jpg"
}

// leveledLogger routes retryablehttp logs through zap. Per-request chatter
// goes to debug.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}
