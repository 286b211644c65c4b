// Package browser opens backend URLs (login, download) in the user's default
// browser, the terminal equivalent of a new navigation target.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/url"

	pkgbrowser "github.com/pkg/browser"

	"github.com/cloudfm/cloudfm/internal/logging"
)

func init() {
	// xdg-open and friends chatter on stdout/stderr; keep the terminal clean
	pkgbrowser.Stdout = io.Discard
	pkgbrowser.Stderr = io.Discard
}

// System opens URLs with the platform's default handler.
type System struct {
	logger *logging.Logger
	open   func(string) error
}

// NewSystem creates an opener backed by github.com/pkg/browser.
func NewSystem(logger *logging.Logger) *System {
	if logger == nil {
		logger = logging.Nop()
	}
	return &System{logger: logger, open: pkgbrowser.OpenURL}
}

// Open launches rawURL. Only absolute http(s) URLs are accepted.
func (s *System) Open(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open non-http URL %q", rawURL)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Debug().Str("url", rawURL).Msg("opening in browser")
	if err := s.open(rawURL); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// Printer writes URLs instead of opening them, for headless sessions.
type Printer struct {
	out io.Writer
}

// NewPrinter creates an opener that prints to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: w}
}

func (p *Printer) Open(_ context.Context, rawURL string) error {
	_, err := fmt.Fprintf(p.out, "Open this URL in your browser:\n  %s\n", rawURL)
	return err
}
