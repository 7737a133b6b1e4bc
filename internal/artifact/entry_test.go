package artifact

import (
	"testing"
	"time"
)

func TestValidate_MinimalValidEntry(t *testing.T) {
	e := Entry{Kind: KindScreenshot, Event: "beforeGet", Path: "shots/0.png", TS: time.Now().UTC()}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}
}

func TestValidate_FailedEntryNeedsNoPath(t *testing.T) {
	e := Entry{Kind: KindHTML, Event: "beforeGet", Error: "boom", TS: time.Now().UTC()}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected failed entry to be valid, got %v", err)
	}
	if !e.Failed() {
		t.Fatal("expected Failed() to be true")
	}
}

func TestValidate_InvalidKind(t *testing.T) {
	e := Entry{Kind: "video", Event: "exit", Path: "x", TS: time.Now().UTC()}
	if err := e.Validate(); err == nil {
		t.Fatalf("expected invalid kind validation error")
	}
}

func TestValidate_MissingEvent(t *testing.T) {
	e := Entry{Kind: KindScreenshot, Path: "x", TS: time.Now().UTC()}
	if err := e.Validate(); err == nil {
		t.Fatalf("expected missing event validation error")
	}
}

func TestValidate_MissingPathOnSuccess(t *testing.T) {
	e := Entry{Kind: KindScreenshot, Event: "exit", TS: time.Now().UTC()}
	if err := e.Validate(); err == nil {
		t.Fatalf("expected missing path validation error")
	}
}

func TestValidate_MissingTimestamp(t *testing.T) {
	e := Entry{Kind: KindScreenshot, Event: "exit", Path: "x"}
	if err := e.Validate(); err == nil {
		t.Fatalf("expected missing timestamp validation error")
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("<html></html>"))
	b := Digest([]byte("<html></html>"))
	c := Digest([]byte("<html> </html>"))
	if len(a) != 16 {
		t.Fatalf("digest length: got %d, want 16", len(a))
	}
	if a != b {
		t.Errorf("same input produced %q and %q", a, b)
	}
	if a == c {
		t.Errorf("different input produced the same digest %q", a)
	}
}
