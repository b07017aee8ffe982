// Where: internal/commands/output.go
// What: Output helpers for command adapters.
// Why: Centralize UserInterface usage and raw line output.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/poruru/ecs-scheduled-scaling/internal/ui"
)

func newUI(out io.Writer) ui.UserInterface {
	return ui.New(out)
}

// exitWithError prints an error message and returns exit code 1.
func exitWithError(out io.Writer, err error) int {
	newUI(out).Warn(fmt.Sprintf("✗ %v", err))
	return 1
}

func writeString(out io.Writer, text string) {
	if out == nil || text == "" {
		return
	}
	_, _ = io.WriteString(out, text)
}

func writeLine(out io.Writer, line string) {
	if out == nil {
		return
	}
	if strings.HasSuffix(line, "\n") {
		_, _ = io.WriteString(out, line)
		return
	}
	_, _ = io.WriteString(out, line+"\n")
}
