package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/timvw/page-patrol/internal/artifact"
	"github.com/timvw/page-patrol/internal/driver"
)

// fakeSession implements driver.Session and records every call in order.
type fakeSession struct {
	mu    sync.Mutex
	calls []string

	screenshotErr error
	htmlErr       error
	navigateErr   error
	quitErr       error
	findErr       error
	findNil       bool // FindElement returns (nil, nil)

	// blockFirstShot, when set, is closed by the first Screenshot call,
	// which then waits for its context to be done.
	blockFirstShot chan struct{}
	shots          int

	html string
}

func newFakeSession() *fakeSession {
	return &fakeSession{html: "<html><body>fake</body></html>"}
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSession) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeSession) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.record("navigate:" + url)
	return f.navigateErr
}

func (f *fakeSession) Quit(_ context.Context) error {
	f.record("quit")
	return f.quitErr
}

func (f *fakeSession) FindElement(_ context.Context, selector string) (driver.Element, error) {
	f.record("find:" + selector)
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findNil {
		return nil, nil
	}
	return &fakeElement{id: selector, session: f}, nil
}

func (f *fakeSession) Screenshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "screenshot")
	f.shots++
	block := f.blockFirstShot != nil && f.shots == 1
	f.mu.Unlock()
	if block {
		close(f.blockFirstShot)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.screenshotErr != nil {
		return nil, f.screenshotErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (f *fakeSession) HTML(_ context.Context) (string, error) {
	f.record("html")
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	return f.html, nil
}

// fakeElement implements driver.Element and records into its session.
type fakeElement struct {
	id       string
	session  *fakeSession
	clickErr error
}

func (e *fakeElement) Click(_ context.Context) error {
	e.session.record("click:" + e.id)
	return e.clickErr
}

func (e *fakeElement) Submit(_ context.Context) error {
	e.session.record("submit:" + e.id)
	return nil
}

func (e *fakeElement) SendKeys(_ context.Context, text string) error {
	e.session.record(fmt.Sprintf("keys:%s:%s", e.id, text))
	return nil
}

// logRecorder is a concurrency-safe log sink.
type logRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (l *logRecorder) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *logRecorder) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.msgs))
	copy(out, l.msgs)
	return out
}

func (l *logRecorder) contains(substr string) bool {
	for _, m := range l.Messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// countingStore wraps a Store and counts EnsureDir calls.
type countingStore struct {
	artifact.Store
	mu      sync.Mutex
	ensures int
}

func (c *countingStore) EnsureDir(path string) (bool, error) {
	c.mu.Lock()
	c.ensures++
	c.mu.Unlock()
	return c.Store.EnsureDir(path)
}

func (c *countingStore) ensureCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensures
}

// newTestMonitor builds a monitor on an in-memory filesystem.
func newTestMonitor(s driver.Session, opts ...Option) (*Monitor, afero.Fs, *logRecorder) {
	mem := afero.NewMemMapFs()
	logs := &logRecorder{}
	base := []Option{
		WithDir("shots"),
		WithStore(artifact.NewFS(mem)),
		WithLog(logs.Log),
	}
	return New(s, append(base, opts...)...), mem, logs
}
