package covabdab

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// DefaultCSVURL is the static download location of the CoV-AbDab export.
const DefaultCSVURL = "http://opig.stats.ox.ac.uk/webapps/covabdab/static/downloads/CoV-AbDab.csv"

// httpClient performs requests; tests may replace it with a mock transport.
var httpClient = &http.Client{Timeout: 60 * time.Second}

var (
	cacheMu      sync.Mutex
	cacheDir     string
	cacheTTLSecs int64 = 24 * 3600
)

// SetCacheDir sets the directory used to cache downloaded CSV bodies.
// An empty value restores the default (user cache dir, falling back to
// the system temp dir).
func SetCacheDir(dir string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheDir = dir
}

// SetCacheTTLSeconds sets how long a cached download stays fresh. A
// value <= 0 disables the cache.
func SetCacheTTLSeconds(secs int64) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheTTLSecs = secs
}

func cachePathFor(url string) string {
	cacheMu.Lock()
	dir := cacheDir
	cacheMu.Unlock()
	if dir == "" {
		if d, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(d, "covabdab")
		} else {
			dir = filepath.Join(os.TempDir(), "covabdab")
		}
	}
	_ = os.MkdirAll(dir, 0o755)
	sum := sha1.Sum([]byte(url))
	return filepath.Join(dir, hex.EncodeToString(sum[:])+".csv")
}

func cachedBody(url string) ([]byte, bool) {
	cacheMu.Lock()
	ttl := cacheTTLSecs
	cacheMu.Unlock()
	if ttl <= 0 {
		return nil, false
	}
	p := cachePathFor(url)
	fi, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if time.Now().Unix()-fi.ModTime().Unix() > ttl {
		return nil, false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

func storeBody(url string, data []byte) {
	cacheMu.Lock()
	ttl := cacheTTLSecs
	cacheMu.Unlock()
	if ttl <= 0 {
		return
	}
	_ = os.WriteFile(cachePathFor(url), data, 0o644)
}

// FetchCSV downloads the CSV export at url, retrying transient failures
// up to 3 times and honoring a Retry-After header on 429 responses.
// Fresh cached downloads are served from disk without touching the
// network.
func FetchCSV(ctx context.Context, url string) (io.ReadCloser, error) {
	if url == "" {
		url = DefaultCSVURL
	}
	if data, ok := cachedBody(url); ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "covabdab-converter/1.0")
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt*300) * time.Millisecond):
			}
			continue
		}
		if resp.StatusCode == http.StatusOK {
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, err
			}
			storeBody(url, data)
			return io.NopCloser(bytes.NewReader(data)), nil
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			wait := time.Duration(attempt*500) * time.Millisecond
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
					wait = time.Duration(secs) * time.Second
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("covabdab download returned 429")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("covabdab download returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil, lastErr
}
