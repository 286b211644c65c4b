package progress

import (
	"os"
)

// ForTerminal picks the CLI reporter for op: a progressbar for uploads, an mpb
// bar for downloads. Without a terminal, uploads go silent and downloads print
// plain start/finish lines.
func ForTerminal(op string) Reporter {
	if op == "download" {
		return NewTransferBar()
	}
	if IsTerminal(os.Stderr) {
		return NewCLIProgress()
	}
	return NewNoOpProgress()
}
