package progress

import (
	"os"
	"runtime"
)

// enableANSIOnWindows enables Virtual Terminal processing so mpb's cursor
// movement renders on Windows consoles. No-op elsewhere.
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
