package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/page-patrol/internal/artifact"
	"github.com/timvw/page-patrol/internal/template"
)

const (
	defaultScreenshotEvent = "unknown"
	defaultHTMLEvent       = "beforeGet"
)

// TakeScreenshot captures the viewport and writes it as a PNG under the
// configured directory. An empty event is recorded as "unknown".
// Failures are logged and journaled before being returned; hooks discard
// the returned error.
func (m *Monitor) TakeScreenshot(ctx context.Context, event string) (string, error) {
	return m.screenshot(ctx, event, false)
}

// intervalScreenshot is one periodic capture. A capture cut short because
// the periodic task was stopped leaves no log line and no journal entry.
func (m *Monitor) intervalScreenshot(ctx context.Context) {
	_, _ = m.screenshot(ctx, "interval", true)
}

func (m *Monitor) screenshot(ctx context.Context, event string, dropCancelled bool) (string, error) {
	if event == "" {
		event = defaultScreenshotEvent
	}
	ctx, span := m.opts.Tracer.Start(ctx, "screenshot", trace.WithAttributes(
		attribute.String("snapshot.event", event),
		attribute.String("run.id", m.opts.RunID),
	))
	defer span.End()

	path, data, err := m.captureScreenshot(ctx, event)
	if err != nil && dropCancelled && ctx.Err() != nil {
		span.SetAttributes(attribute.Bool("snapshot.cancelled", true))
		return "", err
	}
	m.record(ctx, span, artifact.KindScreenshot, event, path, data, err)
	if err != nil {
		m.opts.Log(fmt.Sprintf("Error taking screenshot: %v", err))
		return "", err
	}
	return path, nil
}

// SaveHTML captures the document markup and writes it as an .html file.
// An empty event is recorded as "beforeGet". Failure handling matches
// TakeScreenshot.
func (m *Monitor) SaveHTML(ctx context.Context, event string) (string, error) {
	if event == "" {
		event = defaultHTMLEvent
	}
	ctx, span := m.opts.Tracer.Start(ctx, "save_html", trace.WithAttributes(
		attribute.String("snapshot.event", event),
		attribute.String("run.id", m.opts.RunID),
	))
	defer span.End()

	path, data, err := m.captureHTML(ctx, event)
	m.record(ctx, span, artifact.KindHTML, event, path, data, err)
	if err != nil {
		m.opts.Log(fmt.Sprintf("Error saving HTML: %v", err))
		return "", err
	}
	return path, nil
}

func (m *Monitor) captureScreenshot(ctx context.Context, event string) (string, []byte, error) {
	if err := m.ensureDir(); err != nil {
		return "", nil, err
	}
	path := m.nextFilename(event, "png")
	img, err := m.raw.Screenshot(ctx)
	if err != nil {
		return "", nil, err
	}
	if err := m.opts.Store.WriteBytes(path, img); err != nil {
		return "", nil, err
	}
	return path, img, nil
}

func (m *Monitor) captureHTML(ctx context.Context, event string) (string, []byte, error) {
	html, err := m.raw.HTML(ctx)
	if err != nil {
		return "", nil, err
	}
	if err := m.ensureDir(); err != nil {
		return "", nil, err
	}
	path := m.nextFilename(event, "html")
	if err := m.opts.Store.WriteText(path, html); err != nil {
		return "", nil, err
	}
	return path, []byte(html), nil
}

// ensureDir creates the output directory on the first capture attempt and
// remembers success so later captures skip the filesystem call.
func (m *Monitor) ensureDir() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirCreated {
		return nil
	}
	ok, err := m.opts.Store.EnsureDir(m.opts.Dir)
	if err != nil {
		return err
	}
	m.dirCreated = ok
	return nil
}

// nextFilename consumes one index and expands the filename pattern.
func (m *Monitor) nextFilename(event, ext string) string {
	m.mu.Lock()
	idx := m.nextIndex
	m.nextIndex++
	m.mu.Unlock()

	name := template.Resolve(m.opts.Filename, map[string]string{
		PlaceholderIndex: strconv.Itoa(idx),
		PlaceholderEvent: event,
	})
	return filepath.Join(m.opts.Dir, name+"."+ext)
}

func (m *Monitor) record(ctx context.Context, span trace.Span, kind, event, path string, data []byte, err error) {
	e := artifact.Entry{
		Kind:  kind,
		Event: event,
		RunID: m.opts.RunID,
		TS:    time.Now().UTC(),
	}
	if err != nil {
		e.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.opts.Metrics.RecordFailure(ctx, kind, event)
	} else {
		e.Path = path
		e.Bytes = len(data)
		e.Digest = artifact.Digest(data)
		span.SetAttributes(
			attribute.String("snapshot.path", path),
			attribute.Int("snapshot.bytes", len(data)),
		)
		m.opts.Metrics.RecordCapture(ctx, kind, event, len(data))
	}
	if err := m.opts.Journal.Record(e); err != nil {
		m.opts.Log(fmt.Sprintf("Error recording capture: %v", err))
	}
}
