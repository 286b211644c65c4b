package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/cloudfm/cloudfm/internal/constants"
)

// TransferBar renders one transfer with an mpb bar (speed + ETA decorators).
// Without a terminal it prints one line at start and one at completion.
type TransferBar struct {
	out        io.Writer
	isTerminal bool
	progress   *mpb.Progress
	bar        *mpb.Bar
	label      string
	total      int64
	current    int64
	startTime  time.Time
	lastUpdate time.Time
}

// NewTransferBar creates a bar on stderr, detecting whether it is a terminal.
func NewTransferBar() *TransferBar {
	return newTransferBar(os.Stderr, IsTerminal(os.Stderr))
}

func newTransferBar(out io.Writer, isTerminal bool) *TransferBar {
	return &TransferBar{out: out, isTerminal: isTerminal}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Start creates the bar.
func (b *TransferBar) Start(total int64, description string) {
	b.total = total
	b.label = description
	b.startTime = time.Now()
	b.lastUpdate = b.startTime

	if !b.isTerminal {
		fmt.Fprintf(b.out, "%s (%s)\n", description, formatSize(total))
		return
	}

	if f, ok := b.out.(*os.File); ok {
		enableANSIOnWindows(f)
	}
	b.progress = mpb.New(
		mpb.WithOutput(b.out),
		mpb.WithRefreshRate(constants.ProgressRefreshRate),
		mpb.WithWidth(constants.ProgressBarWidth*2),
	)

	barTotal := total
	if barTotal < 0 {
		barTotal = 0
	}
	b.bar = b.progress.New(barTotal,
		mpb.BarStyle().
			Lbound("[").
			Filler("█").
			Tip("█").
			Padding("░").
			Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(truncateLabel(description, 40), decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
			decor.Name("  "),
			decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
			decor.Name("  ETA "),
			decor.EwmaETA(decor.ET_STYLE_GO, 30),
		),
		mpb.BarRemoveOnComplete(),
	)
}

// Update advances the bar. EwmaIncrBy keeps speed/ETA estimates current.
func (b *TransferBar) Update(current int64) {
	delta := current - b.current
	b.current = current
	if b.bar == nil || delta <= 0 {
		return
	}
	now := time.Now()
	b.bar.EwmaIncrBy(int(delta), now.Sub(b.lastUpdate))
	b.lastUpdate = now
}

// Finish completes the bar and prints a summary line.
func (b *TransferBar) Finish() {
	elapsed := time.Since(b.startTime)
	if b.bar != nil {
		b.bar.SetTotal(-1, true)
		b.progress.Wait()
	}
	fmt.Fprintf(b.out, "✓ %s (%s, %s)\n", b.label, formatSize(b.current), elapsed.Round(time.Millisecond))
}

// Error aborts the bar, leaving it visible, and prints the failure.
func (b *TransferBar) Error(err error) {
	if err == nil {
		return
	}
	if b.bar != nil {
		b.bar.Abort(false)
		b.progress.Wait()
	}
	fmt.Fprintf(b.out, "✗ %s: %v\n", b.label, err)
}

func formatSize(n int64) string {
	if n < 0 {
		return "size unknown"
	}
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
}

// truncateLabel keeps the tail of long labels: "…/c/d/file.txt".
func truncateLabel(label string, max int) string {
	label = filepath.ToSlash(label)
	r := []rune(label)
	if len(r) <= max {
		return label
	}
	return "…" + strings.TrimLeft(string(r[len(r)-max+1:]), "/")
}
