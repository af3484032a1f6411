package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/casehq/triage/internal/cache"
	"github.com/casehq/triage/internal/model"
	"github.com/casehq/triage/internal/util"
	"github.com/casehq/triage/internal/worker"
)

const fetchMaxRetries = 3

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// ErrRobotsDisallowed is returned when a feed host's robots.txt forbids
// fetching the requested path.
var ErrRobotsDisallowed = errors.New("robots.txt disallows fetching")

// Fetcher downloads feed payloads for URL imports
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	payloads   cache.Cache
	cacheTTL   time.Duration
}

// NewFetcher creates a new Fetcher from the feed configuration. Zero
// values fall back to sane defaults.
func NewFetcher(cfg model.FeedConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "Triage/0.1 (+https://github.com/casehq/triage)"
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 10_000_000
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}

	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(userAgent, timeout)
	}
	if cfg.RatePerHost > 0 {
		f.limiter = worker.NewLimiter(cfg.RatePerHost, cfg.Burst)
	}
	return f
}

// SetCache attaches a payload cache so repeated imports of the same
// feed within ttl skip the network.
func (f *Fetcher) SetCache(c cache.Cache, ttl time.Duration) {
	f.payloads = c
	f.cacheTTL = ttl
}

// FetchResult contains the fetched payload and the metadata the import
// path needs to pick a normalizer
type FetchResult struct {
	Body        []byte
	ContentType string
	StatusCode  int
	FinalURL    string
	FromCache   bool
}

// cachedPayload is the cache envelope; the content type must survive
// alongside the bytes for format dispatch.
type cachedPayload struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Fetch retrieves the payload at the given URL in a single attempt
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv,application/json,application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read one byte past the cap to detect oversized payloads instead
	// of silently truncating a record mid-row.
	limitedReader := io.LimitReader(resp.Body, f.maxBytes+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", f.maxBytes)
	}

	return &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retrieves a feed payload, retrying transient failures
// with exponential backoff. Robots rules, per-host rate limits, and the
// payload cache are applied here.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.payloads != nil {
		if raw, found := f.payloads.Get(cache.CacheKey(rawURL)); found {
			var entry cachedPayload
			if err := json.Unmarshal(raw, &entry); err == nil {
				return &FetchResult{
					Body:        entry.Body,
					ContentType: entry.ContentType,
					StatusCode:  http.StatusOK,
					FinalURL:    rawURL,
					FromCache:   true,
				}, nil
			}
		}
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		// An unreachable robots.txt defaults to allow.
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
		crawlDelay = delay
	}

	var result *FetchResult
	var err error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		if f.limiter != nil {
			if lerr := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); lerr != nil {
				return nil, fmt.Errorf("rate limit: %w", lerr)
			}
		}

		result, err = f.Fetch(ctx, rawURL)
		if err == nil {
			break
		}
		if !isRetryableFetchError(err) {
			return nil, err
		}
		if attempt < fetchMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			fetchSleepFunc(backoff)
		}
	}
	if err != nil {
		return nil, err
	}

	if f.payloads != nil {
		if raw, merr := json.Marshal(cachedPayload{ContentType: result.ContentType, Body: result.Body}); merr == nil {
			_ = f.payloads.Set(cache.CacheKey(rawURL), raw, f.cacheTTL)
		}
	}
	return result, nil
}

// isRetryableFetchError returns true for transient failures: 5xx, 429,
// and connection-level network errors
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if idx := strings.Index(msg, "unexpected status: "); idx >= 0 {
		rest := msg[idx+len("unexpected status: "):]
		if len(rest) >= 3 {
			if code, cerr := strconv.Atoi(rest[:3]); cerr == nil {
				if code >= 500 && code < 600 {
					return true
				}
				if code == http.StatusTooManyRequests {
					return true
				}
			}
		}
		return false
	}

	if strings.HasPrefix(msg, "fetch: ") {
		s := strings.ToLower(msg)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "deadline exceeded") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}

	return false
}
