package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"sjsage522/rentcalc/logger"
	apperrors "sjsage522/rentcalc/pkg/errors"
	"sjsage522/rentcalc/services/cache"
)

// HTTP header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.co.za/",
		"https://www.google.com/",
		"https://www.bing.com/",
	}
)

// Fetcher retrieves listing pages over HTTPS
type Fetcher struct {
	client    *http.Client
	cacheSvc  cache.CacheService
	blockTime time.Duration
	log       *logger.Logger
}

// NewFetcher creates a fetcher. A nil client uses a zero-value http.Client and
// a nil cacheSvc disables rate-limit blocking.
func NewFetcher(client *http.Client, cacheSvc cache.CacheService, blockTime time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:    client,
		cacheSvc:  cacheSvc,
		blockTime: blockTime,
		log:       logger.ForFetcher(),
	}
}

// NewHTTPClient returns the client used for outbound fetches; zero timeout means none
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func blockKey(website string) string {
	return website + "_rate_limited"
}

// Fetch sends a GET request with browser-like headers and returns the body converted to UTF-8.
// While a previous response from the website asked us to back off, Fetch fails without
// touching the network.
func (f *Fetcher) Fetch(ctx context.Context, website, rawURL string) (io.Reader, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperrors.NewNetwork(website, "failed to create request", err)
	}
	if u.Scheme != "https" {
		return nil, apperrors.NewNetwork(website, fmt.Sprintf("protocol %q not supported, expected https", u.Scheme), nil)
	}

	if f.cacheSvc != nil {
		if _, err := f.cacheSvc.Get(blockKey(website)); err == nil {
			return nil, apperrors.NewRateLimit(website, f.blockTime)
		}
	}

	body, err := f.fetchWithRandomHeaders(ctx, website, u.String())
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeRateLimit) && f.cacheSvc != nil && f.blockTime > 0 {
			if setErr := f.cacheSvc.Set(blockKey(website), []byte(fmt.Sprintf("%d", f.blockTime/time.Second)), f.blockTime); setErr != nil {
				f.log.Warn().Err(setErr).Str("website", website).Msg("Failed to store rate limit block")
			}
		}
		return nil, err
	}

	return body, nil
}

func (f *Fetcher) fetchWithRandomHeaders(ctx context.Context, website, target string) (io.Reader, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperrors.NewNetwork(website, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-ZA,en;q=0.9,en-US;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("upgrade-insecure-requests", "1")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetwork(website, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	f.log.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched page")

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		retryAfter := resp.Header.Get("Retry-After")
		return nil, apperrors.New(apperrors.ErrorTypeRateLimit, website, "rate limited; retry after "+retryAfter, nil)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetwork(website, fmt.Sprintf("fetch %s unexpected status code: %d", target, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetwork(website, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if strings.EqualFold(name, "utf-8") {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, apperrors.NewNetwork(website, "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}
