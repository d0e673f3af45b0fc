// Package browser is the narrow page capability the session bootstrap and
// the feed cursor drive. Chrome implements it over chromedp; MockPage is a
// scriptable in-memory page for tests.
package browser

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNoElement is returned when a selector matches nothing on the page.
var ErrNoElement = errors.New("no element matches selector")

// Page is one browser tab. Selectors are CSS selectors.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	// OuterHTML returns the markup of the first match, or ErrNoElement.
	OuterHTML(ctx context.Context, selector string) (string, error)
	// Attribute returns the attribute of the first match. ok is false when
	// the element exists but lacks the attribute; a missing element is ErrNoElement.
	Attribute(ctx context.Context, selector, name string) (value string, ok bool, err error)
	Exists(ctx context.Context, selector string) (bool, error)
	ScrollIntoView(ctx context.Context, selector string) error
	// Type clears the input and types text into it.
	Type(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	Close() error
}

// Cookie is the persisted form of a browser cookie.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure"`
	HTTPOnly bool      `json:"http_only"`
}

// Expired reports whether the cookie has a past expiry. Session cookies never expire.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && c.Expires.Before(now)
}

// HTTPCookie converts the cookie for use with net/http clients and jars.
func (c Cookie) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
}
