package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chargingthefuture/linkproof/internal/cache"
	"github.com/chargingthefuture/linkproof/internal/model"
)

func testConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:     2 * time.Second,
		UserAgent:   "linkproof-test/1.0",
		MaxAttempts: 3,
		RetryDelay:  time.Second,
		DomainRate:  1000,
		DomainBurst: 1000,
	}
}

// openFetcher disables the SSRF guard so the fetcher can reach the loopback
// test server.
func openFetcher(cfg model.HTTPConfig, pages *cache.PageCache) *Fetcher {
	f := NewFetcher(cfg, pages)
	f.blockedHost = func(string) bool { return false }
	return f
}

func TestBlockedHost(t *testing.T) {
	tests := []struct {
		host    string
		blocked bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"api.localhost", true},
		{"127.0.0.1", true},
		{"127.0.0.53", true},
		{"::1", true},
		{"0.0.0.0", true},
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.254", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"fd00::1", true},
		{"example.com", false},
		{"8.8.8.8", false},
		{"172.32.0.1", false},
		{"193.168.1.1", false},
		{"internal-wiki.example.com", false},
	}

	for _, tt := range tests {
		if got := BlockedHost(tt.host); got != tt.blocked {
			t.Errorf("BlockedHost(%q) = %v, want %v", tt.host, got, tt.blocked)
		}
	}
}

func TestFetcher_SSRFRejectedWithoutNetwork(t *testing.T) {
	fetcher := NewFetcher(testConfig(), nil)

	for _, url := range []string{
		"http://127.0.0.1/admin",
		"http://localhost:8080/",
		"http://192.168.1.1/router",
		"http://10.0.0.1/",
	} {
		_, ferr := fetcher.Fetch(context.Background(), url)
		if ferr == nil {
			t.Fatalf("Expected SSRF rejection for %s", url)
		}
		if ferr.Kind != KindSSRFBlocked {
			t.Errorf("Fetch(%s) kind = %s, want ssrf_blocked", url, ferr.Kind)
		}
	}
}

func TestFetcher_BadURL(t *testing.T) {
	fetcher := NewFetcher(testConfig(), nil)

	for _, url := range []string{"ftp://example.com/file", "not a url at all://", "file:///etc/passwd"} {
		_, ferr := fetcher.Fetch(context.Background(), url)
		if ferr == nil {
			t.Fatalf("Expected error for %q", url)
		}
		if ferr.Kind != KindBadURL {
			t.Errorf("Fetch(%q) kind = %s, want bad_url", url, ferr.Kind)
		}
	}
}

func TestFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "linkproof-test/1.0" {
			t.Errorf("Expected configured User-Agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<title>Channel Axioms</title>
			<meta name="description" content="Rules for closed channels.">
		</head><body><p>A send to a closed channel panics.</p></body></html>`))
	}))
	defer server.Close()

	fetcher := openFetcher(testConfig(), nil)

	result, ferr := fetcher.Fetch(context.Background(), server.URL)
	if ferr != nil {
		t.Fatalf("Expected success, got %v", ferr)
	}
	if result.HTTPStatus != http.StatusOK {
		t.Errorf("Expected status 200, got %d", result.HTTPStatus)
	}
	if result.Title != "Channel Axioms" {
		t.Errorf("Expected extracted title, got %q", result.Title)
	}
	if result.Snippet != "Rules for closed channels." {
		t.Errorf("Expected extracted snippet, got %q", result.Snippet)
	}
	if result.Content == "" {
		t.Error("Expected extracted body content")
	}
}

func TestFetcher_HTTPStatusNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) { t.Error("Expected no retry sleep for HTTP status failures") }
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := openFetcher(testConfig(), nil)

	_, ferr := fetcher.FetchWithRetry(context.Background(), server.URL)
	if ferr == nil {
		t.Fatal("Expected HTTP status error")
	}
	if ferr.Kind != KindHTTPStatus {
		t.Errorf("Expected kind http_status, got %s", ferr.Kind)
	}
	if ferr.Status != http.StatusNotFound {
		t.Errorf("Expected status 404 on error, got %d", ferr.Status)
	}
	if !ferr.GotResponse() {
		t.Error("Expected GotResponse() true for HTTP status failures")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected exactly 1 request, got %d", got)
	}
}

func TestFetcher_NetworkErrorRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		// Kill the connection mid-response to force a transport error.
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("Expected hijackable response writer")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("Hijack failed: %v", err)
			return
		}
		_ = conn.Close()
	}))
	defer server.Close()

	var sleeps int32
	origSleep := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) { atomic.AddInt32(&sleeps, 1) }
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := openFetcher(testConfig(), nil)

	_, ferr := fetcher.FetchWithRetry(context.Background(), server.URL)
	if ferr == nil {
		t.Fatal("Expected network error")
	}
	if ferr.Kind != KindNetwork {
		t.Errorf("Expected kind network, got %s", ferr.Kind)
	}
	if ferr.GotResponse() {
		t.Error("Expected GotResponse() false for network failures")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
	if got := atomic.LoadInt32(&sleeps); got != 2 {
		t.Errorf("Expected 2 inter-attempt delays, got %d", got)
	}
}

func TestFetcher_TimeoutNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) { t.Error("Expected no retry sleep for timeouts") }
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := openFetcher(cfg, nil)

	_, ferr := fetcher.FetchWithRetry(context.Background(), server.URL)
	if ferr == nil {
		t.Fatal("Expected timeout error")
	}
	if ferr.Kind != KindTimeout {
		t.Errorf("Expected kind timeout, got %s", ferr.Kind)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", got)
	}
}

func TestFetcher_RedirectToBlockedHost(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) { t.Error("Expected no retry for a blocked redirect") }
	defer func() { fetchSleepFunc = origSleep }()

	// Let the test server's loopback address through; block only the
	// redirect target so the rejection provably comes from the redirect hop.
	fetcher := NewFetcher(testConfig(), nil)
	fetcher.blockedHost = func(host string) bool { return host == "169.254.169.254" }

	_, ferr := fetcher.FetchWithRetry(context.Background(), server.URL)
	if ferr == nil {
		t.Fatal("Expected blocked redirect to fail")
	}
	if ferr.Kind != KindSSRFBlocked {
		t.Errorf("Expected kind ssrf_blocked for redirect target, got %s", ferr.Kind)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected 1 request, got %d", got)
	}
}

func TestNewFetcher_Defaults(t *testing.T) {
	fetcher := NewFetcher(model.HTTPConfig{}, nil)

	if fetcher.cfg.Timeout != 10*time.Second {
		t.Errorf("Expected default timeout 10s, got %v", fetcher.cfg.Timeout)
	}
	if fetcher.cfg.MaxAttempts != 3 {
		t.Errorf("Expected default 3 attempts, got %d", fetcher.cfg.MaxAttempts)
	}
	if fetcher.cfg.RetryDelay != time.Second {
		t.Errorf("Expected default 1s retry delay, got %v", fetcher.cfg.RetryDelay)
	}
	if fetcher.cfg.MaxBodyBytes != 2_000_000 {
		t.Errorf("Expected default body cap, got %d", fetcher.cfg.MaxBodyBytes)
	}
}

func TestFetcher_PageCacheAvoidsRefetch(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("<html><head><title>Cached Page</title></head><body>once</body></html>"))
	}))
	defer server.Close()

	pages := cache.NewPageCache(time.Minute, time.Minute)
	fetcher := openFetcher(testConfig(), pages)

	for i := 0; i < 3; i++ {
		result, ferr := fetcher.Fetch(context.Background(), server.URL)
		if ferr != nil {
			t.Fatalf("Fetch %d failed: %v", i, ferr)
		}
		if result.Title != "Cached Page" {
			t.Errorf("Fetch %d title = %q, want 'Cached Page'", i, result.Title)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected 1 origin request with cache enabled, got %d", got)
	}
}

func TestFetcher_BodyCapped(t *testing.T) {
	big := make([]byte, 0, 1<<20)
	big = append(big, []byte("<html><body>")...)
	for i := 0; i < 200_000; i++ {
		big = append(big, []byte("word ")...)
	}
	big = append(big, []byte("</body></html>")...)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(big)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBodyBytes = 64 * 1024
	fetcher := openFetcher(cfg, nil)

	result, ferr := fetcher.Fetch(context.Background(), server.URL)
	if ferr != nil {
		t.Fatalf("Expected success, got %v", ferr)
	}
	if len(result.Content) == 0 {
		t.Error("Expected some content from the capped body")
	}
}
