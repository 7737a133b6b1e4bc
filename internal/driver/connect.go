package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// LaunchConfig controls how a local browser is started.
type LaunchConfig struct {
	Bin      string   // browser binary; empty lets rod find or download one
	Headless bool     // run without a window
	Flags    []string // extra command-line flags, e.g. "--window-size=1280,800"
}

// Launch starts a local browser and opens a blank page in it.
// The returned session kills the browser process on Quit.
func Launch(ctx context.Context, cfg LaunchConfig) (*Rod, error) {
	l := launcher.New().Context(ctx).Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	for _, raw := range cfg.Flags {
		name, value, hasValue := parseFlag(raw)
		if name == "" {
			continue
		}
		if hasValue {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	r, err := Connect(ctx, controlURL)
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, err
	}
	r.launcher = l
	return r, nil
}

// Connect attaches to a running browser through its DevTools websocket URL
// and opens a blank page in it. Quit closes the browser but leaves the
// process to whoever started it.
func Connect(ctx context.Context, controlURL string) (*Rod, error) {
	if controlURL == "" {
		return nil, fmt.Errorf("control URL is required")
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return NewRod(browser, page), nil
}

// parseFlag splits "--name=value" into its parts. Leading dashes are optional.
func parseFlag(raw string) (name, value string, hasValue bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(raw), "-")
	name, value, hasValue = strings.Cut(trimmed, "=")
	return strings.TrimSpace(name), value, hasValue
}
