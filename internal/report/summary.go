// Package report renders a capture journal for humans.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/timvw/page-patrol/internal/artifact"
)

// Summary renders one line per journal entry followed by a totals line.
// Ages are computed relative to now.
func Summary(runID string, entries []artifact.Entry, theme Theme, now time.Time) string {
	st := newStyles(theme)

	var b strings.Builder
	title := "page-patrol run"
	if runID != "" {
		title += " " + runID
	}
	b.WriteString(st.title.Render(title))
	b.WriteString("\n")
	b.WriteString(st.border.Render(strings.Repeat("─", 60)))
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString(st.dim.Render("no captures"))
		b.WriteString("\n")
		return b.String()
	}

	var written, failed int
	var total uint64
	for _, e := range entries {
		age := humanize.RelTime(e.TS, now, "ago", "from now")
		if e.Failed() {
			failed++
			fmt.Fprintf(&b, "%s %-10s %s  %s  %s\n",
				st.err.Render("✗"),
				e.Kind,
				st.event.Render(e.Event),
				st.err.Render(e.Error),
				st.dim.Render(age),
			)
			continue
		}
		written++
		total += uint64(e.Bytes)
		fmt.Fprintf(&b, "%s %-10s %s  %s  %s\n",
			st.ok.Render("✓"),
			e.Kind,
			st.event.Render(e.Event),
			st.text.Render(e.Path),
			st.dim.Render(humanize.Bytes(uint64(e.Bytes))+", "+age),
		)
	}

	b.WriteString(st.dim.Render(fmt.Sprintf("%s written (%s)", humanize.Comma(int64(written)), humanize.Bytes(total))))
	if failed > 0 {
		b.WriteString(st.dim.Render(", "))
		b.WriteString(st.err.Render(fmt.Sprintf("%d failed", failed)))
	}
	b.WriteString("\n")
	return b.String()
}
