package trigger

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeCapturer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeCapturer) TakeScreenshot(_ context.Context, event string) (string, error) {
	f.add("screenshot:" + event)
	return "shots/x.png", nil
}

func (f *fakeCapturer) SaveHTML(_ context.Context, event string) (string, error) {
	f.add("html:" + event)
	return "shots/x.html", nil
}

func (f *fakeCapturer) add(c string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeCapturer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"screenshot", Request{Kind: KindScreenshot, Event: "manual"}, false},
		{"html without event", Request{Kind: KindHTML}, false},
		{"unknown kind", Request{Kind: "pdf"}, true},
		{"empty kind", Request{}, true},
		{"event with slash", Request{Kind: KindHTML, Event: "../etc"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestListener_StartBindsSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	socketPath := shortSocketPath(t)
	l := NewListener(&fakeCapturer{}, socketPath)
	if err := l.Start(ctx); err != nil {
		t.Fatalf("start listener: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(socketPath); err != nil {
		t.Fatalf("expected socket at %s: %v", socketPath, err)
	}
}

func TestListener_StartRequiresCapturer(t *testing.T) {
	l := NewListener(nil, shortSocketPath(t))
	if err := l.Start(context.Background()); err == nil {
		t.Fatal("expected error without capturer")
	}
}

func TestListener_DispatchesRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := &fakeCapturer{}
	socketPath := shortSocketPath(t)
	l := NewListener(fc, socketPath)
	if err := l.Start(ctx); err != nil {
		t.Fatalf("start listener: %v", err)
	}
	defer l.Close()

	if err := sendDatagram(socketPath, []byte(`{"kind":"screenshot","event":"manual"}`)); err != nil {
		t.Fatalf("send datagram: %v", err)
	}
	if err := sendDatagram(socketPath, []byte(`{"kind":"html","event":"manual"}`)); err != nil {
		t.Fatalf("send datagram: %v", err)
	}

	waitFor(t, time.Second, func() bool { return len(fc.Calls()) == 2 })

	got := strings.Join(fc.Calls(), ",")
	if got != "screenshot:manual,html:manual" {
		t.Fatalf("calls = %s", got)
	}
}

func TestListener_IgnoresInvalidRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := &fakeCapturer{}
	socketPath := shortSocketPath(t)
	l := NewListener(fc, socketPath)
	l.MaxPayloadBytes = 64
	if err := l.Start(ctx); err != nil {
		t.Fatalf("start listener: %v", err)
	}
	defer l.Close()

	payloads := [][]byte{
		[]byte(`not-json`),
		[]byte(`{"kind":"video"}`),
		[]byte(`{"kind":"screenshot","event":"` + strings.Repeat("a", 80) + `"}`),
	}
	for _, p := range payloads {
		if err := sendDatagram(socketPath, p); err != nil {
			t.Fatalf("send datagram: %v", err)
		}
	}

	time.Sleep(100 * time.Millisecond)
	if got := len(fc.Calls()); got != 0 {
		t.Fatalf("expected 0 captures for invalid payloads, got %d", got)
	}
}

func TestListener_CloseRemovesSocket(t *testing.T) {
	socketPath := shortSocketPath(t)
	l := NewListener(&fakeCapturer{}, socketPath)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("start listener: %v", err)
	}
	l.Close()
	l.Close()

	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed, stat err = %v", err)
	}
}

func TestSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := &fakeCapturer{}
	socketPath := shortSocketPath(t)
	l := NewListener(fc, socketPath)
	if err := l.Start(ctx); err != nil {
		t.Fatalf("start listener: %v", err)
	}
	defer l.Close()

	if err := Send(socketPath, Request{Kind: KindHTML, Event: "checkout"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFor(t, time.Second, func() bool { return len(fc.Calls()) == 1 })
	if got := fc.Calls()[0]; got != "html:checkout" {
		t.Fatalf("call = %s", got)
	}

	if err := Send(socketPath, Request{Kind: "pdf"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDefaultSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := DefaultSocketPath(); got != "/run/user/1000/page-patrol/trigger.sock" {
		t.Fatalf("DefaultSocketPath() = %s", got)
	}

	t.Setenv("XDG_RUNTIME_DIR", "")
	if got := DefaultSocketPath(); !strings.HasSuffix(got, "trigger.sock") {
		t.Fatalf("DefaultSocketPath() = %s", got)
	}
}

func sendDatagram(socketPath string, payload []byte) error {
	addr, err := net.ResolveUnixAddr("unixgram", socketPath)
	if err != nil {
		return err
	}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write(payload)
	return err
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func shortSocketPath(t *testing.T) string {
	t.Helper()
	base := filepath.Join(os.TempDir(), "pp-trigger")
	if err := os.MkdirAll(base, 0o700); err != nil {
		t.Fatalf("mkdir temp base: %v", err)
	}
	p := filepath.Join(base, fmt.Sprintf("%d-%d.sock", time.Now().UnixNano(), os.Getpid()))
	t.Cleanup(func() {
		_ = os.Remove(p)
	})
	return p
}
