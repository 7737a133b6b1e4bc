package report

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors used by the run summary.
type Theme struct {
	Primary   lipgloss.Color // title
	Success   lipgloss.Color // written artifacts
	Error     lipgloss.Color // failed captures
	Info      lipgloss.Color // event tags
	Text      lipgloss.Color // paths
	TextMuted lipgloss.Color // sizes, ages, footer
	Border    lipgloss.Color // separator
}

func DarkTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#fab283"),
		Success:   lipgloss.Color("#7fd88f"),
		Error:     lipgloss.Color("#e06c75"),
		Info:      lipgloss.Color("#56b6c2"),
		Text:      lipgloss.Color("#eeeeee"),
		TextMuted: lipgloss.Color("#808080"),
		Border:    lipgloss.Color("#484848"),
	}
}

// LightTheme returns a theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#b35c00"),
		Success:   lipgloss.Color("#116329"),
		Error:     lipgloss.Color("#cf222e"),
		Info:      lipgloss.Color("#0969da"),
		Text:      lipgloss.Color("#1f2328"),
		TextMuted: lipgloss.Color("#656d76"),
		Border:    lipgloss.Color("#d0d7de"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

type styles struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	event  lipgloss.Style
	text   lipgloss.Style
	dim    lipgloss.Style
	border lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		ok:     lipgloss.NewStyle().Foreground(t.Success),
		err:    lipgloss.NewStyle().Foreground(t.Error),
		event:  lipgloss.NewStyle().Foreground(t.Info),
		text:   lipgloss.NewStyle().Foreground(t.Text),
		dim:    lipgloss.NewStyle().Foreground(t.TextMuted),
		border: lipgloss.NewStyle().Foreground(t.Border),
	}
}
