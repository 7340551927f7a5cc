// Package fetch performs the SSRF-guarded, timeout-bounded, retried HTTP GET
// against a cited URL and hands the response HTML to the content extractor.
// Every failure is a typed *Error; callers branch on its Kind.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/chargingthefuture/linkproof/internal/cache"
	"github.com/chargingthefuture/linkproof/internal/extract"
	"github.com/chargingthefuture/linkproof/internal/model"
	"github.com/chargingthefuture/linkproof/internal/worker"
)

// fetchSleepFunc is the delay between retry attempts (injectable for tests).
var fetchSleepFunc = time.Sleep

// Result is a successfully fetched and extracted page.
type Result struct {
	HTTPStatus int    `json:"http_status"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	Content    string `json:"content"`
}

// Fetcher retrieves cited pages. Redirects are followed, cookies and auth
// are never forwarded, request bodies are never sent.
type Fetcher struct {
	client  *http.Client
	cfg     model.HTTPConfig
	limiter *worker.Limiter
	robots  *RobotsChecker
	pages   *cache.PageCache

	// blockedHost is the SSRF guard, injectable for tests that fetch from a
	// loopback test server.
	blockedHost func(host string) bool
}

// NewFetcher creates a fetcher from config. pages may be nil to disable the
// page cache.
func NewFetcher(cfg model.HTTPConfig, pages *cache.PageCache) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2_000_000
	}
	if cfg.DomainRate <= 0 {
		cfg.DomainRate = 2
	}
	if cfg.DomainBurst <= 0 {
		cfg.DomainBurst = 4
	}

	f := &Fetcher{
		cfg:         cfg,
		limiter:     worker.NewLimiter(cfg.DomainRate, cfg.DomainBurst),
		pages:       pages,
		blockedHost: BlockedHost,
	}
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		// The guard must hold across redirects too: a public host may 302 to
		// a loopback or metadata address.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if f.blockedHost(req.URL.Hostname()) {
				return &Error{Kind: KindSSRFBlocked, URL: req.URL.String(), Msg: "redirect to local/internal host"}
			}
			return nil
		},
	}
	if cfg.CheckRobots {
		f.robots = NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	return f
}

// Fetch retrieves the URL once: guard, rate limit, GET, extract. The retry
// policy lives in FetchWithRetry.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, *Error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{Kind: KindBadURL, URL: rawURL, Msg: "parse url", Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &Error{Kind: KindBadURL, URL: rawURL, Msg: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}

	if f.blockedHost(parsed.Hostname()) {
		return nil, &Error{Kind: KindSSRFBlocked, URL: rawURL, Msg: "local/internal hosts are not allowed"}
	}

	if f.pages != nil {
		if payload, ok := f.pages.Get(rawURL); ok {
			var cached Result
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return nil, &Error{Kind: KindRobotsBlocked, URL: rawURL, Msg: "disallowed by robots.txt"}
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, classifyTransportError(rawURL, "rate limit wait", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindBadURL, URL: rawURL, Msg: "create request", Err: err}
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		// A redirect rejected by the guard surfaces wrapped in *url.Error;
		// keep its kind rather than classifying it as transient.
		var ferr *Error
		if errors.As(err, &ferr) {
			return nil, ferr
		}
		return nil, classifyTransportError(rawURL, "fetch", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Kind:   KindHTTPStatus,
			URL:    rawURL,
			Status: resp.StatusCode,
			Msg:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(rawURL, "read body", err)
	}

	page := extract.Content(string(body))
	result := &Result{
		HTTPStatus: resp.StatusCode,
		Title:      page.Title,
		Snippet:    page.Snippet,
		Content:    page.Body,
	}

	if f.pages != nil {
		if payload, err := json.Marshal(result); err == nil {
			f.pages.Set(rawURL, payload)
		}
	}

	return result, nil
}

// FetchWithRetry applies the retry policy: transient network failures are
// retried up to MaxAttempts total with a fixed delay between attempts.
// SSRF blocks, timeouts, and HTTP-status failures fail on the first attempt.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*Result, *Error) {
	var lastErr *Error

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		result, ferr := f.Fetch(ctx, rawURL)
		if ferr == nil {
			return result, nil
		}

		lastErr = ferr
		if !ferr.Retryable() || attempt == f.cfg.MaxAttempts {
			break
		}

		zap.L().Debug("transient fetch failure, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(ferr),
		)
		fetchSleepFunc(f.cfg.RetryDelay)
	}

	return nil, lastErr
}

// classifyTransportError maps a transport-level error to a typed kind:
// deadline overruns become KindTimeout, everything else KindNetwork.
func classifyTransportError(rawURL, op string, err error) *Error {
	kind := KindNetwork
	msg := op

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
		msg = "request timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
		msg = "request timeout"
	case errors.Is(err, context.Canceled):
		kind = KindTimeout
		msg = "request cancelled"
	}

	return &Error{Kind: kind, URL: rawURL, Msg: msg, Err: err}
}
