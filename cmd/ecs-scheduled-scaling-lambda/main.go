// Where: cmd/ecs-scheduled-scaling-lambda/main.go
// What: Lambda entrypoint for EventBridge scheduled rules.
// Why: Run one scale-up or scale-down per scheduled event.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"github.com/poruru/ecs-scheduled-scaling/internal/handler"
	"github.com/poruru/ecs-scheduled-scaling/internal/logging"
	"github.com/poruru/ecs-scheduled-scaling/internal/wire"
)

func main() {
	h, err := newHandler(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lambda.Start(h.Handle)
}

func newHandler(ctx context.Context) (*handler.Handler, error) {
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}
	controller, err := wire.BuildController(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return handler.New(controller, logger.WithField("cluster", cfg.Cluster)), nil
}
