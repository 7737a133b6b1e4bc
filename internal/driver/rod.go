package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultNavigationTimeout bounds a single Navigate call, load included.
const DefaultNavigationTimeout = 30 * time.Second

// submitJS submits the element's owning form, or the element itself when it
// is a form.
const submitJS = `function() { (this.form || this).submit() }`

// Rod implements Session on top of a go-rod browser with a single page.
type Rod struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher // nil when attached to an existing browser

	// NavigationTimeout overrides DefaultNavigationTimeout when positive.
	NavigationTimeout time.Duration
}

// NewRod wraps an already connected browser and page.
func NewRod(browser *rod.Browser, page *rod.Page) *Rod {
	return &Rod{browser: browser, page: page}
}

// Page exposes the underlying page for callers that need raw rod access.
func (r *Rod) Page() *rod.Page {
	return r.page
}

// Navigate loads url and waits for the load event.
func (r *Rod) Navigate(ctx context.Context, url string) error {
	timeout := r.NavigationTimeout
	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	p := r.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// Quit closes the browser and, when this process launched it, kills and
// cleans up the browser process.
func (r *Rod) Quit(ctx context.Context) error {
	err := r.browser.Context(ctx).Close()
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher.Cleanup()
	}
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// FindElement returns the first element matching selector.
func (r *Rod) FindElement(ctx context.Context, selector string) (Element, error) {
	el, err := r.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element %q: %w", selector, err)
	}
	return &rodElement{el: el}, nil
}

// Screenshot captures the viewport as PNG.
func (r *Rod) Screenshot(ctx context.Context) ([]byte, error) {
	img, err := r.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return img, nil
}

// HTML returns the outer HTML of the document element.
func (r *Rod) HTML(ctx context.Context) (string, error) {
	html, err := r.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}
	return html, nil
}

// rodElement implements Element for a *rod.Element.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Submit(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(submitJS)
	return err
}

func (e *rodElement) SendKeys(ctx context.Context, text string) error {
	return e.el.Context(ctx).Input(text)
}
