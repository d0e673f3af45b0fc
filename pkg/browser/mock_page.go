package browser

import (
	"context"
	"fmt"
	"sync"
)

// MockPage implements Page over in-memory maps. Hooks let tests mutate the
// page in response to navigation, clicks and scrolling.
type MockPage struct {
	mu sync.Mutex

	URL       string
	TitleText string
	// HTML maps a selector to the outerHTML it returns.
	HTML map[string]string
	// Attrs maps a selector to its attributes.
	Attrs map[string]map[string]string
	// Present marks selectors that exist without HTML or attributes.
	Present map[string]bool
	Typed   map[string]string
	Jar     []Cookie
	Calls   []string
	Closed  bool

	// Errors forces a method (by name, e.g. "Navigate") to fail.
	Errors map[string]error

	OnNavigate func(p *MockPage, url string)
	OnClick    func(p *MockPage, selector string)
	OnScroll   func(p *MockPage, selector string)
}

// NewMockPage returns an empty page
func NewMockPage() *MockPage {
	return &MockPage{
		HTML:    map[string]string{},
		Attrs:   map[string]map[string]string{},
		Present: map[string]bool{},
		Typed:   map[string]string{},
		Errors:  map[string]error{},
	}
}

// SetAttr sets one attribute, creating the element if needed.
func (p *MockPage) SetAttr(selector, name, value string) {
	if p.Attrs[selector] == nil {
		p.Attrs[selector] = map[string]string{}
	}
	p.Attrs[selector][name] = value
}

// Remove deletes every trace of selector.
func (p *MockPage) Remove(selector string) {
	delete(p.HTML, selector)
	delete(p.Attrs, selector)
	delete(p.Present, selector)
}

// CallCount returns how many times method was called
func (p *MockPage) CallCount(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, c := range p.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (p *MockPage) enter(method string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, method)
	if p.Closed {
		return fmt.Errorf("%s on closed page", method)
	}
	return p.Errors[method]
}

func (p *MockPage) exists(selector string) bool {
	_, html := p.HTML[selector]
	_, attrs := p.Attrs[selector]
	return html || attrs || p.Present[selector]
}

func (p *MockPage) Navigate(ctx context.Context, url string) error {
	if err := p.enter("Navigate"); err != nil {
		return err
	}
	p.URL = url
	if p.OnNavigate != nil {
		p.OnNavigate(p, url)
	}
	return ctx.Err()
}

func (p *MockPage) Title(context.Context) (string, error) {
	if err := p.enter("Title"); err != nil {
		return "", err
	}
	return p.TitleText, nil
}

func (p *MockPage) OuterHTML(_ context.Context, selector string) (string, error) {
	if err := p.enter("OuterHTML"); err != nil {
		return "", err
	}
	html, ok := p.HTML[selector]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	return html, nil
}

func (p *MockPage) Attribute(_ context.Context, selector, name string) (string, bool, error) {
	if err := p.enter("Attribute"); err != nil {
		return "", false, err
	}
	if !p.exists(selector) {
		return "", false, fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	v, ok := p.Attrs[selector][name]
	return v, ok, nil
}

func (p *MockPage) Exists(_ context.Context, selector string) (bool, error) {
	if err := p.enter("Exists"); err != nil {
		return false, err
	}
	return p.exists(selector), nil
}

func (p *MockPage) ScrollIntoView(_ context.Context, selector string) error {
	if err := p.enter("ScrollIntoView"); err != nil {
		return err
	}
	if !p.exists(selector) {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	if p.OnScroll != nil {
		p.OnScroll(p, selector)
	}
	return nil
}

func (p *MockPage) Type(_ context.Context, selector, text string) error {
	if err := p.enter("Type"); err != nil {
		return err
	}
	if !p.exists(selector) {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	p.Typed[selector] = text
	return nil
}

func (p *MockPage) Click(_ context.Context, selector string) error {
	if err := p.enter("Click"); err != nil {
		return err
	}
	if !p.exists(selector) {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	if p.OnClick != nil {
		p.OnClick(p, selector)
	}
	return nil
}

func (p *MockPage) Cookies(context.Context) ([]Cookie, error) {
	if err := p.enter("Cookies"); err != nil {
		return nil, err
	}
	return append([]Cookie(nil), p.Jar...), nil
}

func (p *MockPage) SetCookies(_ context.Context, cookies []Cookie) error {
	if err := p.enter("SetCookies"); err != nil {
		return err
	}
	p.Jar = append(p.Jar, cookies...)
	return nil
}

func (p *MockPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "Close")
	p.Closed = true
	return nil
}
