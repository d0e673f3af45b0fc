package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, Cookie{Name: "session"}.Expired(now))
	assert.False(t, Cookie{Expires: now.Add(time.Hour)}.Expired(now))
	assert.True(t, Cookie{Expires: now.Add(-time.Hour)}.Expired(now))
}

func TestHTTPCookie(t *testing.T) {
	expires := time.Unix(1700000000, 0).UTC()
	hc := Cookie{
		Name: "token", Value: "abc", Domain: "9gag.com", Path: "/",
		Expires: expires, Secure: true, HTTPOnly: true,
	}.HTTPCookie()

	assert.Equal(t, "token", hc.Name)
	assert.Equal(t, "abc", hc.Value)
	assert.Equal(t, "9gag.com", hc.Domain)
	assert.True(t, hc.HttpOnly)
	assert.True(t, hc.Secure)
	assert.Equal(t, expires, hc.Expires)
}

func TestFromNetworkCookie(t *testing.T) {
	persistent := fromNetworkCookie(&network.Cookie{
		Name: "a", Value: "1", Domain: ".9gag.com", Path: "/",
		Expires: 1700000000.5, Secure: true,
	})
	assert.Equal(t, "9gag.com", persistent.Domain)
	assert.Equal(t, time.Unix(1700000000, 500000000).UTC(), persistent.Expires)

	session := fromNetworkCookie(&network.Cookie{Name: "b", Expires: -1, Session: true})
	assert.True(t, session.Expires.IsZero())
}

func TestMockPage(t *testing.T) {
	ctx := context.Background()
	page := NewMockPage()
	page.HTML["#stream-0"] = "<div id=\"stream-0\"></div>"
	page.SetAttr("div.loading > a", "class", "btn spin")
	page.OnScroll = func(p *MockPage, _ string) {
		p.SetAttr("div.loading > a", "class", "btn end")
	}

	html, err := page.OuterHTML(ctx, "#stream-0")
	require.NoError(t, err)
	assert.Contains(t, html, "stream-0")

	_, err = page.OuterHTML(ctx, "#stream-1")
	assert.ErrorIs(t, err, ErrNoElement)

	require.NoError(t, page.ScrollIntoView(ctx, "div.loading > a"))
	class, ok, err := page.Attribute(ctx, "div.loading > a", "class")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "btn end", class)

	_, ok, err = page.Attribute(ctx, "div.loading > a", "style")
	require.NoError(t, err)
	assert.False(t, ok)

	page.Errors["Click"] = errors.New("detached")
	assert.Error(t, page.Click(ctx, "div.loading > a"))

	require.NoError(t, page.Close())
	assert.Error(t, page.Navigate(ctx, "https://9gag.com/"))
	assert.Equal(t, 1, page.CallCount("Close"))
}
