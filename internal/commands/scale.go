// Where: internal/commands/scale.go
// What: down, up, and invoke command implementations.
// Why: Let operators run the scheduled scaling by hand with readable output.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"github.com/poruru/ecs-scheduled-scaling/internal/handler"
	"github.com/poruru/ecs-scheduled-scaling/internal/interaction"
	"github.com/poruru/ecs-scheduled-scaling/internal/logging"
	"github.com/poruru/ecs-scheduled-scaling/internal/scaling"
	"github.com/poruru/ecs-scheduled-scaling/internal/ui"
	"github.com/sirupsen/logrus"
)

type (
	DownCmd struct {
		Yes bool `short:"y" help:"Skip the confirmation prompt"`
	}
	UpCmd     struct{}
	InvokeCmd struct {
		Event string `short:"f" help:"Path to a scheduled event JSON file (stdin when empty or -)"`
	}
)

var errNoRunnerFactory = errors.New("scaling runtime is not configured")

// signalContext is cancelled on SIGINT or SIGTERM. Tests may override this helper.
var signalContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

type session struct {
	logger *logrus.Entry
	runner Runner
}

func newSession(ctx context.Context, cfg config.Config, deps Dependencies) (session, error) {
	logOut := deps.LogOut
	if logOut == nil {
		logOut = os.Stderr
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, logOut)
	if err != nil {
		return session{}, err
	}
	if deps.NewRunner == nil {
		return session{}, errNoRunnerFactory
	}
	runner, err := deps.NewRunner(ctx, cfg, logger)
	if err != nil {
		return session{}, fmt.Errorf("build scaling runtime: %w", err)
	}
	return session{logger: logger, runner: runner}, nil
}

func runDown(cli CLI, deps Dependencies, out io.Writer) int {
	cfg, err := loadConfig(cli)
	if err != nil {
		return exitWithError(out, err)
	}

	if !cli.Down.Yes && deps.Interactive {
		confirmer := deps.Confirmer
		if confirmer == nil {
			confirmer = interaction.LineConfirmer{In: deps.In, Out: out}
		}
		title := fmt.Sprintf("Scale every %s service in %s to zero?", cfg.LaunchType, cfg.Cluster)
		ok, err := confirmer.Confirm(title)
		if err != nil {
			return exitWithError(out, err)
		}
		if !ok {
			newUI(out).Info("Aborted.")
			return 0
		}
	}

	ctx, stop := signalContext()
	defer stop()
	rt, err := newSession(ctx, cfg, deps)
	if err != nil {
		return exitWithError(out, err)
	}
	result, err := rt.runner.ScaleDown(ctx)
	return reportResult(out, cfg, result, err)
}

func runUp(cli CLI, deps Dependencies, out io.Writer) int {
	cfg, err := loadConfig(cli)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, stop := signalContext()
	defer stop()
	rt, err := newSession(ctx, cfg, deps)
	if err != nil {
		return exitWithError(out, err)
	}
	result, err := rt.runner.ScaleUp(ctx)
	return reportResult(out, cfg, result, err)
}

func runInvoke(cli CLI, deps Dependencies, out io.Writer) int {
	cfg, err := loadConfig(cli)
	if err != nil {
		return exitWithError(out, err)
	}
	event, err := readEvent(cli.Invoke.Event, deps.In)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, stop := signalContext()
	defer stop()
	rt, err := newSession(ctx, cfg, deps)
	if err != nil {
		return exitWithError(out, err)
	}
	result, err := handler.New(rt.runner, rt.logger).Process(ctx, event)
	return reportResult(out, cfg, result, err)
}

func readEvent(path string, in io.Reader) (events.CloudWatchEvent, error) {
	var (
		content []byte
		err     error
	)
	path = strings.TrimSpace(path)
	switch {
	case path != "" && path != "-":
		content, err = os.ReadFile(path)
	case in != nil:
		content, err = io.ReadAll(in)
	default:
		content, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return events.CloudWatchEvent{}, fmt.Errorf("read event: %w", err)
	}

	var event events.CloudWatchEvent
	if err := json.Unmarshal(content, &event); err != nil {
		return events.CloudWatchEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// reportResult renders the work done, including partial work before a failure.
func reportResult(out io.Writer, cfg config.Config, result scaling.Result, runErr error) int {
	console := newUI(out)

	if result.Direction == scaling.Unrecognized && runErr == nil {
		label := result.Label
		if label == "" {
			label = "(none)"
		}
		console.Warn(fmt.Sprintf("event %s matches neither %s nor %s, nothing to do", label, cfg.UpTrigger, cfg.DownTrigger))
		return 0
	}

	if result.StoreCreated {
		console.Warn(fmt.Sprintf("created snapshot table %s", cfg.TableName))
	}
	if len(result.Recorded) > 0 {
		rows := make([]ui.KeyValue, 0, len(result.Recorded))
		for _, snap := range result.Recorded {
			rows = append(rows, ui.KeyValue{Key: snap.Service, Value: snap.DesiredCount})
		}
		console.Block("📸", fmt.Sprintf("Recorded in %s", cfg.TableName), rows)
	}
	if len(result.Updated) > 0 {
		emoji := "📈"
		if result.Direction == scaling.ScaleDown {
			emoji = "📉"
		}
		rows := make([]ui.KeyValue, 0, len(result.Updated))
		for _, update := range result.Updated {
			rows = append(rows, ui.KeyValue{Key: update.Service.ShortName(), Value: update.DesiredCount})
		}
		console.Block(emoji, "Desired counts", rows)
	}

	if runErr != nil {
		return exitWithError(out, fmt.Errorf("%s on %s: %w", result.Direction, cfg.Cluster, runErr))
	}
	console.Success(fmt.Sprintf("%s finished on %s", result.Direction, cfg.Cluster))
	return 0
}
