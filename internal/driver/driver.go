// Package driver provides an abstraction over browser-automation sessions.
//
// This package is pure transport. It drives the browser and hands back
// what it observes (pixels, markup) without interpreting any of it.
// Instrumentation lives in the monitor package, which decorates these
// interfaces.
package driver

import (
	"context"
)

// Session abstracts one live browser-automation session.
// Implementations exist for go-rod.
type Session interface {
	// Navigate loads url in the session's page and waits for it to settle.
	Navigate(ctx context.Context, url string) error

	// Quit tears the session down. The session is unusable afterwards.
	Quit(ctx context.Context) error

	// FindElement locates the first element matching a CSS selector.
	FindElement(ctx context.Context, selector string) (Element, error)

	// Screenshot captures the visible viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// HTML returns the serialized markup of the current document.
	HTML(ctx context.Context) (string, error)
}

// Element abstracts a located element handle.
type Element interface {
	Click(ctx context.Context) error
	Submit(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
}
