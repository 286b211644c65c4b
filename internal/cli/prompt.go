package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/cloudfm/cloudfm/internal/panel"
)

// lineReader reads trimmed lines from the terminal. One reader is shared per
// command so buffered input is not lost between prompts.
type lineReader struct {
	r   *bufio.Reader
	out io.Writer
}

func newLineReader(in io.Reader, out io.Writer) *lineReader {
	return &lineReader{r: bufio.NewReader(in), out: out}
}

// readLine prints prompt and returns the next line without its newline.
// io.EOF is returned only when no input at all was read.
func (lr *lineReader) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(lr.out, prompt)
	}
	input, err := lr.r.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// promptYesNo asks question until the answer is yes or no. Empty input takes
// defaultYes; EOF counts as no.
func (lr *lineReader) promptYesNo(question string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for {
		input, err := lr.readLine(fmt.Sprintf("%s %s: ", question, hint))
		if err != nil {
			fmt.Fprintln(lr.out)
			return false
		}
		switch strings.ToLower(input) {
		case "":
			return defaultYes
		case "y", "yes":
			return true
		case "n", "no":
			return false
		default:
			fmt.Fprintln(lr.out, "Please answer yes or no.")
		}
	}
}

// promptDefault asks for a value, returning def on empty input.
func (lr *lineReader) promptDefault(label, def string) string {
	input, err := lr.readLine(fmt.Sprintf("%s [%s]: ", label, def))
	if err != nil || input == "" {
		return def
	}
	return input
}

// Confirm implements panel.Confirmer.
func (lr *lineReader) Confirm(ctx context.Context, prompt string) bool {
	if ctx.Err() != nil {
		return false
	}
	return lr.promptYesNo(prompt, false)
}

// autoConfirm answers yes without asking, for --confirm.
var autoConfirm = panel.ConfirmFunc(func(context.Context, string) bool { return true })

// stdinIsTerminal reports whether stdin is interactive.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readSecret reads a line without echo when stdin is a terminal.
func (lr *lineReader) readSecret(prompt string) (string, error) {
	if !stdinIsTerminal() {
		return lr.readLine(prompt)
	}
	fmt.Fprint(lr.out, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(lr.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
