// Where: internal/interaction/interaction.go
// What: Confirmation prompts and TTY detection for the CLI.
// Why: Keep destructive commands from running without an explicit yes.
package interaction

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(title string) (bool, error)
}

// IsTerminal reports whether the file refers to a terminal device.
var IsTerminal = func(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var runConfirmPrompt = func(title, description string, confirmed *bool) error {
	return huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(confirmed).
		Run()
}

// HuhConfirmer renders the question as a TUI prompt.
type HuhConfirmer struct {
	Description string
}

func (c HuhConfirmer) Confirm(title string) (bool, error) {
	var confirmed bool
	if err := runConfirmPrompt(title, c.Description, &confirmed); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("prompt confirm: %w", err)
	}
	return confirmed, nil
}

// LineConfirmer reads a y/N answer from a plain stream.
type LineConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c LineConfirmer) Confirm(title string) (bool, error) {
	return PromptYesNoWithIO(c.In, c.Out, title)
}

// NewConfirmer picks the TUI prompt when both ends are terminals and the
// line prompt otherwise.
func NewConfirmer(in, out *os.File) Confirmer {
	if IsTerminal(in) && IsTerminal(out) {
		return HuhConfirmer{}
	}
	return LineConfirmer{In: in, Out: out}
}

// PromptYesNoWithIO prints a confirmation prompt to out and reads the answer from in.
func PromptYesNoWithIO(in io.Reader, out io.Writer, message string) (bool, error) {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	reader := bufio.NewReader(in)
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", message)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.TrimSpace(strings.ToLower(line))
	return answer == "y" || answer == "yes", nil
}
