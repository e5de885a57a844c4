package ingest

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var blockedPrefixStrings = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var blockedPrefixes = func() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(blockedPrefixStrings))
	for _, s := range blockedPrefixStrings {
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}()

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// RateLimitedFetcher provides per-host rate limiting, retries and timeouts.
type RateLimitedFetcher struct {
	clients       map[string]*http.Client
	limiters      map[string]*rate.Limiter
	defaultConfig FetchConfig
	mu            sync.RWMutex

	// BlockPrivateNetworks refuses connections and redirects to private,
	// loopback and link-local addresses.
	BlockPrivateNetworks bool
}

// NewRateLimitedFetcher creates a new rate-limited fetcher with default config
func NewRateLimitedFetcher(defaultConfig FetchConfig) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		clients:       make(map[string]*http.Client),
		limiters:      make(map[string]*rate.Limiter),
		defaultConfig: withFetchDefaults(defaultConfig, FetchConfig{}),
	}
}

func withFetchDefaults(cfg, fallback FetchConfig) FetchConfig {
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = fallback.TimeoutSeconds
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = 15
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = fallback.MaxRetries
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = fallback.RateLimitRPS
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 1.0
	}
	if cfg.ProxyURL == "" {
		cfg.ProxyURL = fallback.ProxyURL
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = fallback.AcceptLanguage
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "en-US,en;q=0.5"
	}
	return cfg
}

// getClient returns or creates an HTTP client and limiter for a host.
func (f *RateLimitedFetcher) getClient(host string, config FetchConfig) (*http.Client, *rate.Limiter) {
	f.mu.RLock()
	client, exists := f.clients[host]
	limiter := f.limiters[host]
	f.mu.RUnlock()
	if exists {
		return client, limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if client, exists := f.clients[host]; exists {
		return client, f.limiters[host]
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if f.BlockPrivateNetworks {
		transport.DialContext = safeDialContext
	}
	if config.ProxyURL != "" {
		if proxyURL, err := url.Parse(config.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client = &http.Client{
		Timeout:   time.Duration(config.TimeoutSeconds) * time.Second,
		Transport: transport,
	}
	if f.BlockPrivateNetworks {
		client.CheckRedirect = safeCheckRedirect
	}
	f.clients[host] = client

	interval := time.Duration(float64(time.Second) / config.RateLimitRPS)
	limiter = rate.NewLimiter(rate.Every(interval), 1)
	f.limiters[host] = limiter

	return client, limiter
}

// safeDialContext wraps the default dialer to block private IPs
func safeDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("blocked private IP: %s", ip)
		}
	}

	return d.DialContext(ctx, network, addr)
}

// isPrivateIP checks if an IP is in a private range or loopback/link-local
func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsLinkLocalMulticast() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}

	if addr, ok := netip.AddrFromSlice(ip); ok {
		for _, prefix := range blockedPrefixes {
			if prefix.Contains(addr.Unmap()) {
				return true
			}
		}
	}
	return false
}

// safeCheckRedirect limits redirects and validates destinations
func safeCheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	if req.URL == nil {
		return fmt.Errorf("invalid redirect URL")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect scheme blocked")
	}

	host := req.URL.Hostname()
	if host == "" {
		return fmt.Errorf("redirect host missing")
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".local") {
		return fmt.Errorf("redirect to internal host blocked")
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return err
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("redirect to private IP blocked: %s", ip)
		}
	}
	return nil
}

// shouldRetry determines if an error or status code should trigger a retry.
// Transport errors, timeouts included, are never retried: the endpoint's
// timeout already bounds the attempt and the chain moves to the next source.
func shouldRetry(err error, statusCode int) bool {
	if err != nil {
		return false
	}

	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Do implements Fetcher with rate limiting and retries with exponential
// backoff. Only 2xx responses are returned; the caller owns the body.
func (f *RateLimitedFetcher) Do(ctx context.Context, r Request) (*FetchedDocument, error) {
	u, err := url.Parse(r.URL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", r.URL)
	}

	config := withFetchDefaults(r.Fetch, f.defaultConfig)
	client, limiter := f.getClient(u.Host, config)

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 0.5s, 1s, 2s + jitter
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var body *bytes.Reader
		if method != http.MethodGet {
			payload := r.Body
			if payload == nil {
				payload = []byte("{}")
			}
			body = bytes.NewReader(payload)
		}

		var req *http.Request
		if body != nil {
			req, err = http.NewRequestWithContext(ctx, method, r.URL, body)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, r.URL, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Language", config.AcceptLanguage)
		req.Header.Set("User-Agent", "funding-gateway/1.0")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetry(err, 0) && ctx.Err() == nil {
				continue
			}
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &FetchedDocument{
				URL:         r.URL,
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
				Body:        resp.Body,
				FetchedAt:   time.Now(),
				Headers:     resp.Header,
			}, nil
		}

		resp.Body.Close()
		lastErr = &StatusError{StatusCode: resp.StatusCode}
		if shouldRetry(nil, resp.StatusCode) {
			continue
		}
		return nil, lastErr
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
