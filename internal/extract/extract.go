package extract

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"finbot/internal/retry"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// ErrNoReadableText indicates the page produced no usable article text.
var ErrNoReadableText = errors.New("no readable text extracted")

// Article is the readable content pulled out of a news page.
type Article struct {
	Title    string
	SiteName string
	Text     string
	Excerpt  string
}

// Fetcher downloads news pages and extracts their readable main text.
type Fetcher struct {
	client      *http.Client
	maxAttempts int
}

// NewFetcher builds a fetcher with bounded retries per download.
func NewFetcher(timeout time.Duration, maxAttempts int) *Fetcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
	}
}

// FetchArticle downloads the URL and extracts the article content.
func (f *Fetcher) FetchArticle(rawURL string) (Article, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Scheme == "" || pageURL.Host == "" {
		return Article{}, fmt.Errorf("invalid article url %q", rawURL)
	}

	body, err := f.download(rawURL)
	if err != nil {
		return Article{}, err
	}
	return Extract(strings.NewReader(body), pageURL)
}

// Extract runs readability over already-downloaded HTML.
func Extract(r io.Reader, pageURL *url.URL) (Article, error) {
	parsed, err := readability.FromReader(r, pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("failed to extract article: %w", err)
	}
	text := strings.TrimSpace(parsed.TextContent)
	if text == "" {
		return Article{}, ErrNoReadableText
	}
	return Article{
		Title:    strings.TrimSpace(parsed.Title),
		SiteName: strings.TrimSpace(parsed.SiteName),
		Text:     text,
		Excerpt:  strings.TrimSpace(parsed.Excerpt),
	}, nil
}

func (f *Fetcher) download(rawURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(retry.ExponentialBackoff(attempt-1, 500*time.Millisecond))
		}

		req, err := http.NewRequest(http.MethodGet, rawURL, http.NoBody)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		// Set user agent to avoid being blocked
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
			// Client errors will not improve with retries
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return "", lastErr
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return string(body), nil
	}
	return "", fmt.Errorf("download failed after %d attempts: %w", f.maxAttempts, lastErr)
}
