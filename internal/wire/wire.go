// Where: internal/wire/wire.go
// What: Scaling runtime wiring.
// Why: Centralize controller construction for reuse by the CLI, the Lambda entry, and tests.
package wire

import (
	"context"
	"fmt"

	"github.com/poruru/ecs-scheduled-scaling/internal/awsclient"
	"github.com/poruru/ecs-scheduled-scaling/internal/cluster"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"github.com/poruru/ecs-scheduled-scaling/internal/recorder"
	"github.com/poruru/ecs-scheduled-scaling/internal/scaling"
	"github.com/poruru/ecs-scheduled-scaling/internal/snapshot"
	"github.com/sirupsen/logrus"
)

// NewAPIs creates the ECS and DynamoDB clients. Tests may override this helper.
var NewAPIs = func(ctx context.Context, cfg config.Config) (cluster.ECSAPI, snapshot.DynamoDBAPI, error) {
	clients, err := awsclient.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return clients.ECS, clients.DynamoDB, nil
}

// BuildController constructs the controller for cfg. The logger is tagged
// with the target cluster.
func BuildController(ctx context.Context, cfg config.Config, logger *logrus.Entry) (*scaling.Controller, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	ecsAPI, dynamoAPI, err := NewAPIs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Assemble(cfg, ecsAPI, dynamoAPI, logger), nil
}

// Assemble connects the components over already-built API clients.
func Assemble(cfg config.Config, ecsAPI cluster.ECSAPI, dynamoAPI snapshot.DynamoDBAPI, logger *logrus.Entry) *scaling.Controller {
	logger = logger.WithField("cluster", cfg.Cluster)
	ecsClient := cluster.New(ecsAPI, cfg)
	store := snapshot.New(dynamoAPI, cfg, logger)
	rec := recorder.New(ecsClient, store, logger)
	triggers := scaling.Triggers{Up: cfg.UpTrigger, Down: cfg.DownTrigger}
	return scaling.New(ecsClient, store, rec, triggers, logger)
}
