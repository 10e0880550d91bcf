// Package ingest's downloader fetches one gzipped dump over HTTP and
// stream-decompresses it to a local file.
package ingest

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/constants"
)

// Downloader fetches dump files from the configured upstream origin.
//
// A shared [rate.Limiter] throttles the twelve tasks' concurrent startup
// GETs so they don't present as a burst to the origin.
type Downloader struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewDownloader constructs a Downloader against baseURL. limiter may be nil,
// in which case downloads are unthrottled.
func NewDownloader(baseURL string, limiter *rate.Limiter) *Downloader {
	return &Downloader{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Minute},
		limiter: limiter,
	}
}

// DefaultLimiter returns a limiter permitting roughly one new download every
// 500ms with a small burst, enough to stagger twelve concurrent task starts
// without meaningfully slowing the overall run.
func DefaultLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(500*time.Millisecond), 3)
}

// DownloadResult reports observability data about a completed download.
type DownloadResult struct {
	Path     string
	Bytes    int64
	Checksum uint64 // xxhash64 of the decompressed dump
}

// Download fetches "{baseURL}/sql/{name}.gz", requires a 2xx response,
// removes any existing local file named name (non-fatal if absent), and
// streams the gunzipped body into a fresh local file named name.
func (d *Downloader) Download(ctx context.Context, name string) (DownloadResult, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return DownloadResult{}, apperr.NetworkError(name, err)
		}
	}

	url := fmt.Sprintf(constants.DumpPathTemplate, d.baseURL, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DownloadResult{}, apperr.NetworkError(name, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return DownloadResult{}, apperr.NetworkError(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DownloadResult{}, apperr.HTTPStatus(name, resp.StatusCode)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return DownloadResult{}, apperr.NetworkError(name, err)
	}
	defer gz.Close()

	// Non-fatal: the file may simply not exist from a previous run.
	_ = os.Remove(name)

	out, err := os.Create(name)
	if err != nil {
		return DownloadResult{}, apperr.DiskError("create "+name, err)
	}
	defer out.Close()

	hasher := xxhash.New()
	written, err := io.Copy(io.MultiWriter(out, hasher), gz)
	if err != nil {
		return DownloadResult{}, apperr.DiskError("write "+name, err)
	}

	return DownloadResult{Path: name, Bytes: written, Checksum: hasher.Sum64()}, nil
}
