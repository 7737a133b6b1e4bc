package template

import (
	"strconv"
	"testing"
	"time"
)

func TestResolveAt(t *testing.T) {
	now := time.Date(2026, 2, 27, 12, 30, 45, 123_000_000, time.UTC)

	tests := []struct {
		name      string
		pattern   string
		overrides map[string]string
		want      string
	}{
		{"index and event", "file_%idx%_%event%", map[string]string{"%idx%": "3", "%event%": "beforeGet"}, "file_3_beforeGet"},
		{"date", "%date%", nil, "2026-02-27"},
		{"datetime", "%datetime%", nil, "2026-02-27T12:30:45.123Z"},
		{"timestamp", "%timestamp%", nil, strconv.FormatInt(now.UnixMilli(), 10)},
		{"global replace", "%date%/%date%", nil, "2026-02-27/2026-02-27"},
		{"override beats built-in", "%date%", map[string]string{"%date%": "today"}, "today"},
		{"unknown placeholder untouched", "shot_%idx%_%nope%", nil, "shot_%idx%_%nope%"},
		{"no placeholders", "plain.png", nil, "plain.png"},
		{"empty pattern", "", map[string]string{"%idx%": "1"}, ""},
		{"mixed", "test_screenshot_%date%__%idx%", map[string]string{"%idx%": "0"}, "test_screenshot_2026-02-27__0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAt(now, tt.pattern, tt.overrides)
			if got != tt.want {
				t.Errorf("ResolveAt(%q, %v) = %q, want %q", tt.pattern, tt.overrides, got, tt.want)
			}
		})
	}
}

func TestResolve_DateIsToday(t *testing.T) {
	before := time.Now().UTC().Format("2006-01-02")
	got := Resolve("%date%", map[string]string{})
	after := time.Now().UTC().Format("2006-01-02")

	if len(got) != 10 {
		t.Fatalf("Resolve(%%date%%) = %q, want 10 characters", got)
	}
	if got != before && got != after {
		t.Errorf("Resolve(%%date%%) = %q, want %q", got, before)
	}
}

func TestResolve_DoesNotMutateOverrides(t *testing.T) {
	overrides := map[string]string{"%idx%": "7"}
	_ = Resolve("%idx%_%date%", overrides)
	if len(overrides) != 1 || overrides["%idx%"] != "7" {
		t.Errorf("overrides mutated: %v", overrides)
	}
}
