package monitor

import (
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/timvw/page-patrol/internal/artifact"
	ppotel "github.com/timvw/page-patrol/internal/otel"
)

const (
	DefaultDir      = "./screenshots"
	DefaultFilename = "screenshot_%idx%"
)

// Filename placeholders expanded per capture. All other placeholders are
// expanded once when the monitor is created.
const (
	PlaceholderIndex = "%idx%"
	PlaceholderEvent = "%event%"
)

// Options configures a Monitor. It is fixed once New returns.
type Options struct {
	ScreenshotOnExit         bool
	ScreenshotBeforeNavigate bool
	ScreenshotBeforeClick    bool
	ScreenshotBeforeSubmit   bool
	ScreenshotBeforeSendKeys bool
	SaveHTMLBeforeNavigate   bool

	// Interval between periodic screenshots; zero disables them.
	Interval time.Duration

	Dir      string
	Filename string // pattern, see PlaceholderIndex and PlaceholderEvent

	// Log receives one line per hook action and per swallowed failure.
	Log func(msg string)

	Store   artifact.Store
	Journal *artifact.Journal
	Metrics *ppotel.Metrics // nil-safe
	Tracer  trace.Tracer    // nil means no spans
	RunID   string
}

// Option overrides one field of the default Options.
type Option func(*Options)

// DefaultOptions returns the options used when no Option is given.
func DefaultOptions() Options {
	return Options{
		ScreenshotOnExit:         true,
		ScreenshotBeforeNavigate: true,
		Dir:                      DefaultDir,
		Filename:                 DefaultFilename,
		Log:                      defaultLog,
	}
}

func defaultLog(msg string) {
	log.Println(msg)
}

func defaultTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("")
}

func WithScreenshotOnExit(on bool) Option {
	return func(o *Options) { o.ScreenshotOnExit = on }
}

func WithScreenshotBeforeNavigate(on bool) Option {
	return func(o *Options) { o.ScreenshotBeforeNavigate = on }
}

func WithScreenshotBeforeClick(on bool) Option {
	return func(o *Options) { o.ScreenshotBeforeClick = on }
}

func WithScreenshotBeforeSubmit(on bool) Option {
	return func(o *Options) { o.ScreenshotBeforeSubmit = on }
}

func WithScreenshotBeforeSendKeys(on bool) Option {
	return func(o *Options) { o.ScreenshotBeforeSendKeys = on }
}

func WithSaveHTMLBeforeNavigate(on bool) Option {
	return func(o *Options) { o.SaveHTMLBeforeNavigate = on }
}

func WithInterval(d time.Duration) Option {
	return func(o *Options) { o.Interval = d }
}

func WithDir(dir string) Option {
	return func(o *Options) { o.Dir = dir }
}

// WithFilename sets the filename pattern. An empty pattern keeps the default.
func WithFilename(pattern string) Option {
	return func(o *Options) { o.Filename = pattern }
}

func WithLog(fn func(msg string)) Option {
	return func(o *Options) { o.Log = fn }
}

func WithStore(s artifact.Store) Option {
	return func(o *Options) { o.Store = s }
}

func WithJournal(j *artifact.Journal) Option {
	return func(o *Options) { o.Journal = j }
}

func WithMetrics(m *ppotel.Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Options) { o.Tracer = t }
}

func WithRunID(id string) Option {
	return func(o *Options) { o.RunID = id }
}

// elementHooks reports whether any element-level capture is enabled.
func (o Options) elementHooks() bool {
	return o.ScreenshotBeforeClick || o.ScreenshotBeforeSubmit || o.ScreenshotBeforeSendKeys
}
