package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gagsync/pkg/auth"
	"gagsync/pkg/browser"
	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/logger"
	"gagsync/pkg/retry"
)

// Page markers of the feed site.
const (
	NotFoundTitle   = "9GAG - 404 Nothing here"
	VisitorSelector = "#top-nav > div > div > div.visitor-function"

	ConsentDialogSelector = "#qc-cmp2-ui"
	ConsentAcceptSelector = "#qc-cmp2-ui div.qc-cmp2-footer.qc-cmp2-footer-overlay.qc-cmp2-footer-scrolled > div > button.css-1k47zha"

	UsernameSelector    = "#signup > form > div > div:nth-child(3) > input[type=text]"
	PasswordSelector    = "#signup > form > div > div:nth-child(4) > input[type=password]"
	LoginButtonSelector = "#signup > form > div > button.ui-btn.btn-color-primary.login-view__login"
)

// Credentials resolves the feed login. *auth.Manager implements it.
type Credentials interface {
	Resolve(username string) (*auth.Account, error)
}

// StaticCredentials serves a single account taken from configuration.
type StaticCredentials struct {
	Username string
	Password string
}

func (s StaticCredentials) Resolve(username string) (*auth.Account, error) {
	if s.Username == "" || s.Password == "" {
		return nil, auth.ErrCredentialsNotFound
	}
	if username != "" && username != s.Username {
		return nil, auth.ErrCredentialsNotFound
	}
	return &auth.Account{Username: s.Username, Password: s.Password}, nil
}

// ChainCredentials tries each source in order.
type ChainCredentials []Credentials

func (c ChainCredentials) Resolve(username string) (*auth.Account, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if account, err := src.Resolve(username); err == nil {
			return account, nil
		}
	}
	return nil, auth.ErrCredentialsNotFound
}

// Options locate the site and tune the login flow.
type Options struct {
	HomeURL     string
	LoginURL    string
	SettleDelay time.Duration
	// Account picks a stored login; empty means the most recent one.
	Account string
}

// OptionsFromConfig extracts bootstrap options from the run configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		HomeURL:     cfg.Feed.HomeURL,
		LoginURL:    cfg.Feed.LoginURL,
		SettleDelay: cfg.Session.SettleDelay,
		Account:     cfg.Session.Account,
	}
}

// Bootstrap turns a fresh browser page into an authenticated one.
type Bootstrap struct {
	page    browser.Page
	cookies *CookieStore
	creds   Credentials
	opts    Options
	logger  logger.Logger

	// Sleep waits after page transitions; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewBootstrap takes ownership of page: it is closed when authentication fails.
func NewBootstrap(page browser.Page, cookies *CookieStore, creds Credentials, opts Options, log logger.Logger) *Bootstrap {
	return &Bootstrap{
		page:    page,
		cookies: cookies,
		creds:   creds,
		opts:    opts,
		logger:  logger.Component(log, "session"),
		Sleep:   retry.Wait,
	}
}

// Handle is an authenticated browsing context. Close releases the browser.
type Handle struct {
	page  browser.Page
	store *CookieStore

	// FreshLogin is true when the form login ran during this bootstrap.
	FreshLogin bool
}

// Page returns the authenticated page
func (h *Handle) Page() browser.Page {
	return h.page
}

// Store returns the cookie store other components load the session from
func (h *Handle) Store() *CookieStore {
	return h.store
}

// Close releases the browsing context
func (h *Handle) Close() error {
	return h.page.Close()
}

// EnsureAuthenticated restores persisted cookies, and logs in through the
// form at most once when they do not yield a logged-in page.
func (b *Bootstrap) EnsureAuthenticated(ctx context.Context) (handle *Handle, err error) {
	defer func() {
		if err != nil {
			b.page.Close()
		}
	}()

	if err := b.page.Navigate(ctx, b.opts.HomeURL); err != nil {
		return nil, err
	}

	restored, err := b.restoreCookies(ctx)
	if err != nil {
		return nil, err
	}
	if restored {
		if err := b.page.Navigate(ctx, b.opts.HomeURL); err != nil {
			return nil, err
		}
	}

	if err := b.acceptConsent(ctx); err != nil {
		return nil, err
	}

	loggedIn, err := b.LoggedIn(ctx)
	if err != nil {
		return nil, err
	}
	if loggedIn {
		b.logger.Info("session restored from cookies")
		return &Handle{page: b.page, store: b.cookies}, nil
	}

	if err := b.login(ctx); err != nil {
		return nil, err
	}

	if err := b.page.Navigate(ctx, b.opts.HomeURL); err != nil {
		return nil, err
	}
	return &Handle{page: b.page, store: b.cookies, FreshLogin: true}, nil
}

func (b *Bootstrap) restoreCookies(ctx context.Context) (bool, error) {
	cookies, err := b.cookies.Load()
	if err != nil {
		return false, err
	}
	if len(cookies) == 0 {
		b.logger.Debug("no persisted cookies")
		return false, nil
	}

	if err := b.page.SetCookies(ctx, cookies); err != nil {
		return false, fmt.Errorf("restore cookies: %w", err)
	}
	b.logger.DebugWithFields("restored cookies", map[string]interface{}{
		"count": len(cookies),
	})
	return true, nil
}

// acceptConsent dismisses the cookie consent dialog when it is shown
func (b *Bootstrap) acceptConsent(ctx context.Context) error {
	shown, err := b.page.Exists(ctx, ConsentDialogSelector)
	if err != nil || !shown {
		return err
	}

	b.logger.Debug("accepting consent dialog")
	if err := b.page.Click(ctx, ConsentAcceptSelector); err != nil {
		return fmt.Errorf("accept consent dialog: %w", err)
	}
	return nil
}

// LoggedIn inspects the current page. The site answers 404 for member pages
// and shows the visitor buttons (no inline style) to anonymous users.
func (b *Bootstrap) LoggedIn(ctx context.Context) (bool, error) {
	title, err := b.page.Title(ctx)
	if err != nil {
		return false, err
	}
	if title == NotFoundTitle {
		b.logger.Debug("detected logged out session (404 title)")
		return false, nil
	}

	style, _, err := b.page.Attribute(ctx, VisitorSelector, "style")
	if errors.Is(err, browser.ErrNoElement) {
		b.logger.Debug("visitor marker missing, treating session as logged out")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if style == "" {
		b.logger.Debug("detected logged out session (visitor buttons shown)")
		return false, nil
	}

	b.logger.Debug("detected logged in session")
	return true, nil
}

// login submits the form once. A second failure risks locking the account,
// so a failed check is final.
func (b *Bootstrap) login(ctx context.Context) error {
	if b.creds == nil {
		return errs.New(errs.ErrorTypeAuth, "not logged in and no credentials configured")
	}
	account, err := b.creds.Resolve(b.opts.Account)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "not logged in and no usable credentials")
	}

	log := b.logger.WithField("username", account.Username)
	log.Info("logging in")

	if err := b.page.Navigate(ctx, b.opts.LoginURL); err != nil {
		return err
	}
	if err := b.Sleep(ctx, b.opts.SettleDelay); err != nil {
		return err
	}

	if err := b.page.Type(ctx, UsernameSelector, account.Username); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "login form unavailable")
	}
	if err := b.page.Type(ctx, PasswordSelector, account.Password); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "login form unavailable")
	}
	if err := b.page.Click(ctx, LoginButtonSelector); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "login form unavailable")
	}
	if err := b.Sleep(ctx, b.opts.SettleDelay); err != nil {
		return err
	}

	loggedIn, err := b.LoggedIn(ctx)
	if err != nil {
		return err
	}
	if !loggedIn {
		return errs.New(errs.ErrorTypeAuth, "login as %s failed", account.Username)
	}

	cookies, err := b.page.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("read session cookies: %w", err)
	}
	if err := b.cookies.Save(cookies); err != nil {
		return err
	}

	log.InfoWithFields("logged in", map[string]interface{}{
		"cookies": len(cookies),
		"path":    b.cookies.Path(),
	})
	return nil
}
