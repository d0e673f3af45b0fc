package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"gagsync/pkg/config"
	"gagsync/pkg/logger"
)

// Chrome is a Page backed by a chromedp-driven Chrome process. All calls
// run on the browser's own context; the caller's ctx only cancels them.
type Chrome struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	timeout       time.Duration
	logger        logger.Logger
}

// NewChrome starts Chrome and enables the network domain for cookie access.
func NewChrome(cfg config.BrowserConfig, log logger.Logger) (*Chrome, error) {
	log = logger.Component(log, "browser")

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Warn(fmt.Sprintf(format, args...))
		}),
	)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	c := &Chrome{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		timeout:       timeout,
		logger:        log,
	}

	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.InfoWithFields("browser started", map[string]interface{}{
		"headless": cfg.Headless,
	})
	return c, nil
}

// run executes actions on the browser context bounded by the call timeout
// and the caller's ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.logger.DebugWithFields("navigate", map[string]interface{}{"url": url})
	if err := c.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) Title(ctx context.Context) (string, error) {
	var title string
	if err := c.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return title, nil
}

// Exists evaluates document.querySelector so a missing element returns
// immediately instead of waiting for it to appear.
func (c *Chrome) Exists(ctx context.Context, selector string) (bool, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}

	var found bool
	expr := fmt.Sprintf(`document.querySelector(%s) !== null`, quoted)
	if err := c.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return false, fmt.Errorf("query %q: %w", selector, err)
	}
	return found, nil
}

func (c *Chrome) OuterHTML(ctx context.Context, selector string) (string, error) {
	if ok, err := c.Exists(ctx, selector); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoElement, selector)
	}

	var html string
	if err := c.run(ctx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html of %q: %w", selector, err)
	}
	return html, nil
}

type attributeResult struct {
	Found bool    `json:"found"`
	Value *string `json:"value"`
}

func (c *Chrome) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	quotedSel, err := json.Marshal(selector)
	if err != nil {
		return "", false, err
	}
	quotedName, err := json.Marshal(name)
	if err != nil {
		return "", false, err
	}

	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (el === null) return {found: false, value: null};
		return {found: true, value: el.getAttribute(%s)};
	})()`, quotedSel, quotedName)

	var res attributeResult
	if err := c.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return "", false, fmt.Errorf("read %s of %q: %w", name, selector, err)
	}
	if !res.Found {
		return "", false, fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	if res.Value == nil {
		return "", false, nil
	}
	return *res.Value, true, nil
}

func (c *Chrome) ScrollIntoView(ctx context.Context, selector string) error {
	if err := c.run(ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("scroll to %q: %w", selector, err)
	}
	return nil
}

func (c *Chrome) Type(ctx context.Context, selector, text string) error {
	err := c.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("type into %q: %w", selector, err)
	}
	return nil
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	if err := c.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// Cookies returns every cookie of the browser profile.
func (c *Chrome) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, rc := range raw {
		cookies = append(cookies, fromNetworkCookie(rc))
	}
	return cookies, nil
}

// SetCookies injects cookies. Expired ones are skipped.
func (c *Chrome) SetCookies(ctx context.Context, cookies []Cookie) error {
	now := time.Now()
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, ck := range cookies {
			if ck.Expired(now) {
				continue
			}
			set := network.SetCookie(ck.Name, ck.Value).
				WithDomain(ck.Domain).
				WithPath(ck.Path).
				WithSecure(ck.Secure).
				WithHTTPOnly(ck.HTTPOnly)
			if !ck.Expires.IsZero() {
				expires := cdp.TimeSinceEpoch(ck.Expires)
				set = set.WithExpires(&expires)
			}
			if err := set.Do(ctx); err != nil {
				return fmt.Errorf("set cookie %s: %w", ck.Name, err)
			}
		}
		return nil
	}))
}

// Close shuts the browser down. It is safe to call more than once.
func (c *Chrome) Close() error {
	if c.cancelBrowser != nil {
		c.cancelBrowser()
		c.cancelBrowser = nil
	}
	if c.cancelAlloc != nil {
		c.cancelAlloc()
		c.cancelAlloc = nil
		c.logger.Debug("browser closed")
	}
	return nil
}

func fromNetworkCookie(rc *network.Cookie) Cookie {
	ck := Cookie{
		Name:     rc.Name,
		Value:    rc.Value,
		Domain:   strings.TrimPrefix(rc.Domain, "."),
		Path:     rc.Path,
		Secure:   rc.Secure,
		HTTPOnly: rc.HTTPOnly,
	}
	if !rc.Session && rc.Expires > 0 {
		sec, frac := math.Modf(rc.Expires)
		ck.Expires = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	return ck
}
