// Package progress provides a unified interface for progress reporting
// across CLI (progress bars) and GUI (event bus) modes.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/events"
)

// Reporter is the interface for reporting progress in both CLI and GUI modes.
// A total of -1 means the size is unknown.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
}

// CLIProgress implements progress reporting for CLI mode using progressbar.
type CLIProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a CLI progress reporter writing to stderr.
func NewCLIProgress() *CLIProgress {
	return NewCLIProgressTo(os.Stderr)
}

// NewCLIProgressTo creates a CLI progress reporter writing to w.
func NewCLIProgressTo(w io.Writer) *CLIProgress {
	return &CLIProgress{out: w}
}

// Start initializes the progress bar with total size and description.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(constants.ProgressBarWidth),
		progressbar.OptionThrottle(constants.ProgressRefreshRate),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message under the bar.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// GUIProgress publishes transfer progress on the event bus.
type GUIProgress struct {
	eventBus *events.EventBus
	op       string
	name     string
	total    int64
	current  int64
}

// NewGUIProgress creates a GUI progress reporter for one transfer.
func NewGUIProgress(eventBus *events.EventBus, op string) *GUIProgress {
	return &GUIProgress{eventBus: eventBus, op: op}
}

// Start publishes the initial zero-progress event.
func (p *GUIProgress) Start(total int64, description string) {
	p.total = total
	p.current = 0
	p.name = description
	p.eventBus.PublishTransfer(p.op, p.name, 0, total, false, nil)
}

// Update publishes the current byte count.
func (p *GUIProgress) Update(current int64) {
	p.current = current
	p.eventBus.PublishTransfer(p.op, p.name, current, p.total, false, nil)
}

// Finish publishes completion.
func (p *GUIProgress) Finish() {
	p.eventBus.PublishTransfer(p.op, p.name, p.current, p.total, true, nil)
}

// Error publishes a failed completion.
func (p *GUIProgress) Error(err error) {
	if err != nil {
		p.eventBus.PublishTransfer(p.op, p.name, p.current, p.total, true, err)
	}
}

// NoOpProgress is a progress reporter that does nothing (for background/silent operations).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Update(current int64)                  {}
func (p *NoOpProgress) Finish()                               {}
func (p *NoOpProgress) Error(err error)                       {}

// ProgressReader wraps an io.Reader to report progress.
type ProgressReader struct {
	reader   io.Reader
	reporter Reporter
	total    int64
	current  int64
}

// NewProgressReader creates a new progress-reporting reader.
func NewProgressReader(reader io.Reader, total int64, reporter Reporter) *ProgressReader {
	if reporter == nil {
		reporter = NewNoOpProgress()
	}
	return &ProgressReader{
		reader:   reader,
		reporter: reporter,
		total:    total,
	}
}

// Read implements io.Reader interface with progress reporting.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		pr.reporter.Update(pr.current)
	}
	return n, err
}

// Current returns the number of bytes read so far.
func (pr *ProgressReader) Current() int64 {
	return pr.current
}
