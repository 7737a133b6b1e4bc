package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

const (
	KindScreenshot = "screenshot"
	KindHTML       = "html"
)

// Entry records one capture attempt, successful or not.
type Entry struct {
	Kind   string    `json:"kind"`
	Event  string    `json:"event"`
	Path   string    `json:"path,omitempty"`
	Bytes  int       `json:"bytes"`
	Digest string    `json:"digest,omitempty"` // xxh3 of the written payload
	Error  string    `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
	TS     time.Time `json:"ts"`
}

func (e Entry) Validate() error {
	if !isValidKind(e.Kind) {
		return fmt.Errorf("invalid kind %q", e.Kind)
	}
	if strings.TrimSpace(e.Event) == "" {
		return fmt.Errorf("event is required")
	}
	if e.Error == "" && e.Path == "" {
		return fmt.Errorf("path is required for a successful capture")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}

// Failed reports whether the capture attempt did not produce an artifact.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Digest returns the hex xxh3 hash of data.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

func isValidKind(kind string) bool {
	switch kind {
	case KindScreenshot, KindHTML:
		return true
	default:
		return false
	}
}
