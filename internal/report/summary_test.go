package report

import (
	"strings"
	"testing"
	"time"

	"github.com/timvw/page-patrol/internal/artifact"
)

func TestSummary_WrittenAndFailed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []artifact.Entry{
		{Kind: artifact.KindScreenshot, Event: "beforeGet", Path: "shots/screenshot_0.png", Bytes: 2048, TS: now.Add(-3 * time.Second)},
		{Kind: artifact.KindHTML, Event: "beforeGet", Path: "shots/screenshot_1.html", Bytes: 1000, TS: now.Add(-2 * time.Second)},
		{Kind: artifact.KindScreenshot, Event: "exit", Error: "page closed", TS: now.Add(-time.Second)},
	}

	got := Summary("run-1", entries, DarkTheme(), now)

	for _, want := range []string{
		"page-patrol run run-1",
		"shots/screenshot_0.png",
		"2.0 kB",
		"3 seconds ago",
		"page closed",
		"2 written (3.0 kB)",
		"1 failed",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSummary_Empty(t *testing.T) {
	got := Summary("", nil, LightTheme(), time.Now())
	if !strings.Contains(got, "no captures") {
		t.Fatalf("summary = %q, want no captures line", got)
	}
	if strings.Contains(got, "failed") {
		t.Fatalf("empty summary should not report failures: %q", got)
	}
}

func TestThemeByName(t *testing.T) {
	if ThemeByName("light") != LightTheme() {
		t.Error("light should select LightTheme")
	}
	if ThemeByName("unknown") != DarkTheme() {
		t.Error("unknown should fall back to DarkTheme")
	}
}
