package monitor

import (
	"context"
	"sync"

	"github.com/timvw/page-patrol/internal/driver"
)

// session decorates a driver.Session. The intercepted operations are held
// as funcs so Monitor can swap them for hooked versions exactly once;
// Screenshot and HTML always go straight to the embedded session.
type session struct {
	driver.Session

	mu          sync.RWMutex
	navigate    func(ctx context.Context, url string) error
	quit        func(ctx context.Context) error
	findElement func(ctx context.Context, selector string) (driver.Element, error)
}

func newSession(s driver.Session) *session {
	return &session{
		Session:     s,
		navigate:    s.Navigate,
		quit:        s.Quit,
		findElement: s.FindElement,
	}
}

// replace runs fn with the operation table locked for writing.
func (s *session) replace(fn func(*session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *session) Navigate(ctx context.Context, url string) error {
	s.mu.RLock()
	fn := s.navigate
	s.mu.RUnlock()
	return fn(ctx, url)
}

func (s *session) Quit(ctx context.Context) error {
	s.mu.RLock()
	fn := s.quit
	s.mu.RUnlock()
	return fn(ctx)
}

func (s *session) FindElement(ctx context.Context, selector string) (driver.Element, error) {
	s.mu.RLock()
	fn := s.findElement
	s.mu.RUnlock()
	return fn(ctx, selector)
}

// element decorates one located driver.Element.
type element struct {
	driver.Element

	click    func(ctx context.Context) error
	submit   func(ctx context.Context) error
	sendKeys func(ctx context.Context, text string) error
}

func newElement(e driver.Element) *element {
	return &element{
		Element:  e,
		click:    e.Click,
		submit:   e.Submit,
		sendKeys: e.SendKeys,
	}
}

func (e *element) Click(ctx context.Context) error {
	return e.click(ctx)
}

func (e *element) Submit(ctx context.Context) error {
	return e.submit(ctx)
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.sendKeys(ctx, text)
}

// Unwrap returns the element this one decorates.
func (e *element) Unwrap() driver.Element {
	return e.Element
}
