// Where: internal/commands/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"github.com/poruru/ecs-scheduled-scaling/internal/interaction"
	"github.com/poruru/ecs-scheduled-scaling/internal/scaling"
	"github.com/poruru/ecs-scheduled-scaling/internal/version"
	"github.com/sirupsen/logrus"
)

const binaryName = "ecs-scheduled-scaling"

// Runner is the controller surface the commands drive.
type Runner interface {
	ScaleDown(ctx context.Context) (scaling.Result, error)
	ScaleUp(ctx context.Context) (scaling.Result, error)
	Handle(ctx context.Context, resources []string) (scaling.Result, error)
}

// RunnerFactory builds a Runner for the resolved configuration.
type RunnerFactory func(ctx context.Context, cfg config.Config, logger *logrus.Entry) (Runner, error)

// Dependencies holds everything injected into command execution.
type Dependencies struct {
	Out    io.Writer
	LogOut io.Writer
	In     io.Reader
	// Interactive enables the confirmation prompt for destructive commands.
	Interactive bool
	Confirmer   interaction.Confirmer
	NewRunner   RunnerFactory
}

// CLI defines the command-line interface structure parsed by Kong.
type CLI struct {
	Cluster    string        `short:"c" help:"ECS cluster name or ARN"`
	Region     string        `short:"r" help:"AWS region"`
	Table      string        `help:"Snapshot table name (may be a template over .Cluster and .Region)"`
	ConfigFile string        `name:"config" help:"Path to YAML config file"`
	EnvFile    string        `name:"env-file" help:"Path to .env file"`
	LogLevel   string        `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat  string        `name:"log-format" help:"Log format (json, text)"`
	Down       DownCmd       `cmd:"" help:"Snapshot desired counts and scale every service to zero"`
	Up         UpCmd         `cmd:"" help:"Restore desired counts from the snapshot table"`
	Invoke     InvokeCmd     `cmd:"" help:"Process a scheduled event JSON the way the Lambda does"`
	Config     ConfigCmd     `cmd:"" help:"Inspect the effective configuration"`
	Completion CompletionCmd `cmd:"" help:"Generate shell completion script"`
	Version    VersionCmd    `cmd:"" help:"Show version information"`
}

type VersionCmd struct{}

// Run parses args, dispatches the command, and returns the process exit code.
func Run(args []string, deps Dependencies) int {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	ui := newUI(out)

	if len(args) == 0 {
		return runNoArgs(out)
	}

	cli := CLI{}
	parser, err := newParser(&cli, out)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return exitWithError(out, err)
	}

	// Load environment file if provided or if .env exists in current directory
	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil {
			ui.Warn(fmt.Sprintf("failed to load env file %s: %v", cli.EnvFile, err))
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			ui.Warn(fmt.Sprintf("failed to load .env: %v", err))
		}
	}

	if exitCode, handled := dispatchCommand(ctx.Command(), cli, deps, out); handled {
		return exitCode
	}

	ui.Warn("unknown command")
	return 1
}

func newParser(cli *CLI, out io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name(binaryName),
		kong.Description("Scale every ECS service in a cluster to zero and back, remembering desired counts in DynamoDB."),
		kong.Writers(out, out),
	)
}

type commandHandler func(CLI, Dependencies, io.Writer) int

func dispatchCommand(command string, cli CLI, deps Dependencies, out io.Writer) (int, bool) {
	handlers := map[string]commandHandler{
		"down":            runDown,
		"up":              runUp,
		"invoke":          runInvoke,
		"config show":     runConfigShow,
		"completion bash": func(cli CLI, _ Dependencies, out io.Writer) int { return runCompletionBash(cli, out) },
		"completion zsh":  func(cli CLI, _ Dependencies, out io.Writer) int { return runCompletionZsh(cli, out) },
		"completion fish": func(cli CLI, _ Dependencies, out io.Writer) int { return runCompletionFish(cli, out) },
		"version":         func(_ CLI, _ Dependencies, out io.Writer) int { return runVersion(out) },
	}

	if handler, ok := handlers[command]; ok {
		return handler(cli, deps, out), true
	}
	return 1, false
}

func runVersion(out io.Writer) int {
	newUI(out).Info(version.GetVersion())
	return 0
}

// runNoArgs prints a short usage hint.
func runNoArgs(out io.Writer) int {
	ui := newUI(out)
	ui.Info("Usage:")
	ui.Info(fmt.Sprintf("  %s --cluster <name> <down|up|invoke> [flags]", binaryName))
	ui.Info("")
	ui.Info(fmt.Sprintf("Try: %s --help", binaryName))
	return 0
}

// loadConfig resolves configuration with the global flags as overrides.
func loadConfig(cli CLI) (config.Config, error) {
	return config.Load(config.LoadOptions{
		File: strings.TrimSpace(cli.ConfigFile),
		Overrides: config.Overrides{
			Cluster:   cli.Cluster,
			Region:    cli.Region,
			TableName: cli.Table,
			LogLevel:  cli.LogLevel,
			LogFormat: cli.LogFormat,
		},
	})
}
