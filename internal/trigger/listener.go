// Package trigger lets another process request manual snapshots from a
// running monitor over a unix datagram socket.
//
// Each datagram is one JSON request, e.g. {"kind":"screenshot","event":"manual"}.
// Malformed, oversized or invalid requests are dropped silently.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultMaxPayloadBytes = 4 * 1024

const (
	KindScreenshot = "screenshot"
	KindHTML       = "html"
)

// Request asks for one capture.
type Request struct {
	Kind  string `json:"kind"`
	Event string `json:"event,omitempty"`
}

func (r Request) Validate() error {
	switch r.Kind {
	case KindScreenshot, KindHTML:
	default:
		return fmt.Errorf("invalid kind %q", r.Kind)
	}
	if strings.ContainsAny(r.Event, `/\`) {
		return fmt.Errorf("invalid event %q", r.Event)
	}
	return nil
}

// Capturer performs the requested captures. *monitor.Monitor satisfies it.
type Capturer interface {
	TakeScreenshot(ctx context.Context, event string) (string, error)
	SaveHTML(ctx context.Context, event string) (string, error)
}

type Listener struct {
	capturer Capturer
	path     string

	MaxPayloadBytes int

	mu     sync.Mutex
	conn   *net.UnixConn
	closed bool
	wg     sync.WaitGroup
}

func NewListener(c Capturer, socketPath string) *Listener {
	return &Listener{
		capturer:        c,
		path:            socketPath,
		MaxPayloadBytes: defaultMaxPayloadBytes,
	}
}

func (l *Listener) SocketPath() string {
	return l.path
}

// Start binds the socket and serves requests until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	if l.capturer == nil {
		return fmt.Errorf("capturer is required")
	}
	if l.path == "" {
		return fmt.Errorf("socket path is required")
	}
	if l.MaxPayloadBytes <= 0 {
		l.MaxPayloadBytes = defaultMaxPayloadBytes
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unixgram", l.path)
	if err != nil {
		return fmt.Errorf("resolve unix addr: %w", err)
	}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return fmt.Errorf("listen unixgram: %w", err)
	}
	if err := os.Chmod(l.path, 0o600); err != nil {
		_ = conn.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	l.mu.Lock()
	l.conn = conn
	l.closed = false
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	l.wg.Add(1)
	go l.readLoop(ctx)

	return nil
}

// Close stops serving and waits for the request in progress, if any.
func (l *Listener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
	l.mu.Unlock()
	l.wg.Wait()
	_ = os.Remove(l.path)
}

func (l *Listener) readLoop(ctx context.Context) {
	defer l.wg.Done()
	buf := make([]byte, l.MaxPayloadBytes)
	for {
		l.mu.Lock()
		conn := l.conn
		l.mu.Unlock()
		if conn == nil {
			return
		}

		n, _, err := conn.ReadFromUnix(buf)
		if err != nil {
			if l.isClosed() {
				return
			}
			continue
		}

		if n <= 0 || n >= l.MaxPayloadBytes {
			continue
		}

		var r Request
		if err := json.Unmarshal(buf[:n], &r); err != nil {
			continue
		}
		if err := r.Validate(); err != nil {
			continue
		}
		l.handle(ctx, r)
	}
}

// handle runs one capture. Errors are already logged by the capturer.
func (l *Listener) handle(ctx context.Context, r Request) {
	switch r.Kind {
	case KindScreenshot:
		_, _ = l.capturer.TakeScreenshot(ctx, r.Event)
	case KindHTML:
		_, _ = l.capturer.SaveHTML(ctx, r.Event)
	}
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
