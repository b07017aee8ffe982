// Where: cmd/ecs-scheduled-scaling/cli.go
// What: CLI dependency wiring helpers.
// Why: Centralize construction for testability.
package main

import (
	"context"
	"os"

	"github.com/poruru/ecs-scheduled-scaling/internal/commands"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"github.com/poruru/ecs-scheduled-scaling/internal/interaction"
	"github.com/poruru/ecs-scheduled-scaling/internal/wire"
	"github.com/sirupsen/logrus"
)

var (
	stdin           = os.Stdin
	stdout          = os.Stdout
	stderr          = os.Stderr
	buildController = wire.BuildController
)

// buildDependencies constructs the runtime dependencies for the CLI. Human
// output goes to stdout and structured logs to stderr.
func buildDependencies() commands.Dependencies {
	return commands.Dependencies{
		Out:         stdout,
		LogOut:      stderr,
		In:          stdin,
		Interactive: interaction.IsTerminal(stdin),
		Confirmer:   interaction.NewConfirmer(stdin, stderr),
		NewRunner:   newRunner,
	}
}

func newRunner(ctx context.Context, cfg config.Config, logger *logrus.Entry) (commands.Runner, error) {
	controller, err := buildController(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return controller, nil
}
