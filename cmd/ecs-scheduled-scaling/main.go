// Where: cmd/ecs-scheduled-scaling/main.go
// What: CLI entrypoint.
// Why: Run scaling commands with production dependencies.
package main

import (
	"os"

	"github.com/poruru/ecs-scheduled-scaling/internal/commands"
)

func main() {
	os.Exit(commands.Run(os.Args[1:], buildDependencies()))
}
