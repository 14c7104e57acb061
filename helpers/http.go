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
	"time"

	"sjsage522/recruitcrawler/pkg/errors"
	"sjsage522/recruitcrawler/services/cache"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html/charset"
)

// UserAgents is the client identity rotation used when a source does not pin one
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.75 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.75 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:99.0) Gecko/20100101 Firefox/99.0",
}

var referers = []string{
	"https://www.google.com/",
	"https://www.naver.com/",
	"https://www.daum.net/",
}

// RandomUserAgent picks one entry of UserAgents
func RandomUserAgent() string {
	return UserAgents[mathrand.Intn(len(UserAgents))]
}

// Fetcher issues GET requests for one provider. When Cache is set, a 429/430
// answer stores a block marker under BlockKey for BlockTime, and every later
// request fails fast while the marker lives.
type Fetcher struct {
	Provider  string
	Client    *http.Client
	UserAgent string
	Cache     cache.CacheService
	BlockKey  string
	BlockTime time.Duration
}

// NewFetcher creates a fetcher with a timeout-bound client
func NewFetcher(provider string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		Provider: provider,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) userAgent() string {
	if f.UserAgent != "" {
		return f.UserAgent
	}
	return RandomUserAgent()
}

func (f *Fetcher) blocked() bool {
	if f.Cache == nil || f.BlockKey == "" {
		return false
	}
	_, err := f.Cache.Get(f.BlockKey)
	return err == nil
}

func (f *Fetcher) markBlocked() {
	if f.Cache == nil || f.BlockKey == "" {
		return
	}
	f.Cache.Set(f.BlockKey, []byte(fmt.Sprintf("%d", f.BlockTime/time.Second)), f.BlockTime)
}

// do sends the request and returns the body of a 2xx response
func (f *Fetcher) do(req *http.Request) ([]byte, string, error) {
	if f.blocked() {
		return nil, "", errors.NewRateLimit(f.Provider, fmt.Sprintf("%s expires", f.BlockKey))
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, "", errors.NewNetwork(f.Provider, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		f.markBlocked()
		return nil, "", errors.NewRateLimit(f.Provider, resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", errors.NewStatus(f.Provider, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.NewNetwork(f.Provider, "failed to read response body", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// FetchJSON requests rawURL with the given query and parses the body as JSON
func (f *Fetcher) FetchJSON(ctx context.Context, rawURL string, query url.Values) (gjson.Result, error) {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "application/json, text/plain, */*")

	body, _, err := f.do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.NewDecode(f.Provider, "invalid JSON response", fmt.Errorf("%d bytes from %s", len(body), rawURL))
	}
	return gjson.ParseBytes(body), nil
}

// FetchWithRandomHeaders sends a GET request with browser-like randomized
// headers, converts the response body to UTF-8 (if needed), and returns it
// as an io.Reader.
func (f *Fetcher) FetchWithRandomHeaders(ctx context.Context, rawURL string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[mathrand.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	body, contentType, err := f.do(req)
	if err != nil {
		return nil, err
	}
	return ToUTF8(body, contentType)
}

// ToUTF8 decodes body according to its content type and meta tags. Many
// Korean sites still answer in EUC-KR.
func ToUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(body), nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}
	return &buf, nil
}
