// Package monitor attaches snapshot hooks to a browser-automation session.
//
// A Monitor decorates a driver.Session. The caller drives the session
// returned by Session() exactly as it would drive the raw one; once
// Monitor has been called, navigate, quit and find-element (and the
// click, submit and send-keys operations of found elements) first take
// the configured screenshots or markup captures and then delegate to the
// original operation. Results and errors of the original operation pass
// through untouched. Capture failures are logged and never surface from
// an intercepted call.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/page-patrol/internal/artifact"
	"github.com/timvw/page-patrol/internal/driver"
	"github.com/timvw/page-patrol/internal/template"
)

// Monitor instruments one session. It is not reusable across sessions.
type Monitor struct {
	raw     driver.Session
	session *session
	opts    Options

	mu         sync.Mutex
	monitoring bool
	dirCreated bool
	nextIndex  int
	timers     []*periodic
}

// New wraps s. Defaults are applied first, then opts in order, then the
// filename pattern is resolved once so date placeholders are fixed for
// the lifetime of the monitor. No hooks are active until Monitor is called.
func New(s driver.Session, opts ...Option) *Monitor {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Filename == "" {
		o.Filename = DefaultFilename
	}
	o.Filename = template.Resolve(o.Filename, nil)
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.Log == nil {
		o.Log = defaultLog
	}
	if o.Store == nil {
		o.Store = artifact.NewOSFS()
	}
	if o.Journal == nil {
		o.Journal = artifact.NewJournal(0)
	}
	if o.Tracer == nil {
		o.Tracer = defaultTracer()
	}

	return &Monitor{
		raw:     s,
		session: newSession(s),
		opts:    o,
	}
}

// Session returns the session the caller should drive in place of the raw
// one. Before Monitor is called it forwards every call untouched.
func (m *Monitor) Session() driver.Session {
	return m.session
}

// Options returns the effective options.
func (m *Monitor) Options() Options {
	return m.opts
}

// Journal returns the record of capture attempts.
func (m *Monitor) Journal() *artifact.Journal {
	return m.opts.Journal
}

// Monitor installs the hooks. Only the first call has an effect.
// ctx scopes the periodic capture task, which also stops on Quit.
func (m *Monitor) Monitor(ctx context.Context) {
	m.mu.Lock()
	if m.monitoring {
		m.mu.Unlock()
		return
	}
	m.monitoring = true
	m.mu.Unlock()

	if m.opts.Interval > 0 {
		m.startPeriodic(ctx)
	}

	m.session.replace(func(s *session) {
		s.quit = m.hookQuit(s.quit)
		s.navigate = m.hookNavigate(s.navigate)
		if m.opts.elementHooks() {
			s.findElement = m.hookFindElement(s.findElement)
		}
	})
}

// Monitoring reports whether hooks are installed.
func (m *Monitor) Monitoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monitoring
}

func (m *Monitor) hookQuit(orig func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, span := m.startSpan(ctx, "quit")
		defer span.End()

		m.stopPeriodic()
		if m.opts.ScreenshotOnExit {
			m.opts.Log("Taking screenshot on exit")
			_, _ = m.TakeScreenshot(ctx, "exit")
		}
		return orig(ctx)
	}
}

func (m *Monitor) hookNavigate(orig func(context.Context, string) error) func(context.Context, string) error {
	return func(ctx context.Context, url string) error {
		ctx, span := m.startSpan(ctx, "navigate", attribute.String("url", url))
		defer span.End()

		if m.opts.ScreenshotBeforeNavigate {
			m.opts.Log("Taking screenshot before navigating to " + url)
			_, _ = m.TakeScreenshot(ctx, "beforeGet")
		}
		if m.opts.SaveHTMLBeforeNavigate {
			_, _ = m.SaveHTML(ctx, "beforeGet")
		}
		return orig(ctx, url)
	}
}

func (m *Monitor) hookFindElement(orig func(context.Context, string) (driver.Element, error)) func(context.Context, string) (driver.Element, error) {
	return func(ctx context.Context, selector string) (driver.Element, error) {
		ctx, span := m.startSpan(ctx, "find_element", attribute.String("selector", selector))
		defer span.End()

		el, err := orig(ctx, selector)
		if err != nil || el == nil {
			return el, err
		}
		return m.wrapElement(el), nil
	}
}

// wrapElement instruments a single located element. Other elements, found
// earlier or elsewhere, are never touched.
func (m *Monitor) wrapElement(inner driver.Element) driver.Element {
	e := newElement(inner)
	if m.opts.ScreenshotBeforeClick {
		orig := e.click
		e.click = func(ctx context.Context) error {
			ctx, span := m.startSpan(ctx, "click")
			defer span.End()
			m.opts.Log("Taking screenshot before click")
			_, _ = m.TakeScreenshot(ctx, "beforeClick")
			return orig(ctx)
		}
	}
	if m.opts.ScreenshotBeforeSubmit {
		orig := e.submit
		e.submit = func(ctx context.Context) error {
			ctx, span := m.startSpan(ctx, "submit")
			defer span.End()
			m.opts.Log("Taking screenshot before submit")
			_, _ = m.TakeScreenshot(ctx, "beforeSubmit")
			return orig(ctx)
		}
	}
	if m.opts.ScreenshotBeforeSendKeys {
		orig := e.sendKeys
		e.sendKeys = func(ctx context.Context, text string) error {
			ctx, span := m.startSpan(ctx, "send_keys")
			defer span.End()
			m.opts.Log("Taking screenshot before sending keys")
			_, _ = m.TakeScreenshot(ctx, "beforeSendKeys")
			return orig(ctx, text)
		}
	}
	return e
}

// startSpan opens a span for an intercepted operation and counts the call.
func (m *Monitor) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("driver.operation", operation),
		attribute.String("run.id", m.opts.RunID),
	)
	ctx, span := m.opts.Tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
	m.opts.Metrics.RecordIntercept(ctx, operation)
	return ctx, span
}

// periodic is an owned, cancellable repeating capture task.
type periodic struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (m *Monitor) startPeriodic(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p := &periodic{cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.timers = append(m.timers, p)
	m.mu.Unlock()

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(m.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.opts.Log("Taking screenshot at 'interval' at " + now.UTC().Format(time.RFC3339Nano))
				m.intervalScreenshot(ctx)
			}
		}
	}()
}

// stopPeriodic cancels every periodic task and waits until none of them
// can fire again, including a tick that was already capturing.
func (m *Monitor) stopPeriodic() {
	m.mu.Lock()
	timers := m.timers
	m.timers = nil
	m.mu.Unlock()

	for _, p := range timers {
		p.cancel()
		<-p.done
	}
}
