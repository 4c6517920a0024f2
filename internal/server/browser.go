package server

import (
	"log/slog"

	"github.com/skratchdot/open-golang/open"
)

// Opener shows a URL to the operator, normally in the default browser.
type Opener interface {
	Open(url string) error
}

type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error {
	return f(url)
}

// BrowserOpener opens URLs with the host's default browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	return open.Start(url)
}

// OpenEntry asks opener to show url. A failure is logged and otherwise
// ignored; the server keeps running and the URL is already on stdout.
func OpenEntry(opener Opener, url string) {
	if opener == nil || url == "" {
		return
	}

	if err := opener.Open(url); err != nil {
		slog.Warn("failed to open browser", slog.String("url", url), slog.String("error", err.Error()))
	}
}
