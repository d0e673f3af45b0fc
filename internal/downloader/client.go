// Package downloader fetches item assets over HTTP with the feed session's
// cookies attached.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"gagsync/pkg/browser"
	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/logger"
)

// CookieSource yields the persisted session cookies. *session.CookieStore
// implements it.
type CookieSource interface {
	Load() ([]browser.Cookie, error)
}

// Client downloads assets. Cookies are read from the source on the first
// download and reused for the lifetime of the client.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	source     CookieSource
	cookies    []*http.Cookie
	loaded     bool
	logger     logger.Logger
}

// New creates a download client. A nil source sends no cookies.
func New(cfg config.CacheConfig, source CookieSource, log logger.Logger) *Client {
	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	headers := map[string]string{
		"Accept":          "image/avif,image/webp,image/apng,video/*,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
		source:     source,
		logger:     logger.Component(log, "downloader"),
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

func (c *Client) sessionCookies() ([]*http.Cookie, error) {
	if c.loaded || c.source == nil {
		return c.cookies, nil
	}

	stored, err := c.source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session cookies: %w", err)
	}

	now := time.Now()
	for _, ck := range stored {
		if !ck.Expired(now) {
			c.cookies = append(c.cookies, ck.HTTPCookie())
		}
	}
	c.loaded = true

	c.logger.DebugWithFields("loaded session cookies", map[string]interface{}{
		"count": len(c.cookies),
	})
	return c.cookies, nil
}

// doRequest sends req with the client headers and session cookies
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	cookies, err := c.sessionCookies()
	if err != nil {
		return nil, err
	}
	// The asset CDN lives on another host than the feed, so cookies are
	// attached by name regardless of their domain.
	for _, ck := range cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeDownload, err, "network error")
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

// Download fetches url and returns the complete body. Any status other
// than 200 is a download error carrying the status code.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeDownload, err, "invalid asset url %q", url)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnWithFields("unexpected download status", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return nil, errs.New(errs.ErrorTypeDownload, "GET %s returned %s", url, resp.Status).WithCode(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorWithFields("failed to read asset body", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, errs.Wrap(errs.ErrorTypeDownload, err, "failed to read %s", url)
	}

	c.logger.DebugWithFields("downloaded asset", map[string]interface{}{
		"url":  url,
		"size": len(data),
	})
	return data, nil
}
