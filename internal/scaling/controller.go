// Where: internal/scaling/controller.go
// What: Scale-down (snapshot then zero) and scale-up (restore from snapshot).
// Why: Own the persist-then-restore protocol independent of how it is triggered.
package scaling

import (
	"context"
	"errors"
	"fmt"

	"github.com/poruru/ecs-scheduled-scaling/internal/cluster"
	"github.com/poruru/ecs-scheduled-scaling/internal/snapshot"
	"github.com/sirupsen/logrus"
)

// Cluster lists and mutates services in the target cluster.
type Cluster interface {
	ListReplicaServices(ctx context.Context) ([]cluster.Service, error)
	UpdateDesiredCount(ctx context.Context, svc cluster.Service, count int32) error
}

// Store is the snapshot table as seen by the controller.
type Store interface {
	Table() string
	Exists(ctx context.Context) error
	Create(ctx context.Context) error
	Get(ctx context.Context, service string) (int32, error)
}

// Recorder snapshots live desired counts.
type Recorder interface {
	RecordAll(ctx context.Context, services []cluster.Service) ([]snapshot.Snapshot, error)
}

// Update is one desired-count change applied to a service.
type Update struct {
	Service      cluster.Service
	DesiredCount int32
}

// Result describes what one invocation did. On error it holds the work done
// before the failure.
type Result struct {
	Direction    Direction
	Label        string
	StoreCreated bool
	Recorded     []snapshot.Snapshot
	Updated      []Update
}

// Controller runs one scaling invocation at a time. It keeps no state between calls.
type Controller struct {
	cluster  Cluster
	store    Store
	recorder Recorder
	triggers Triggers
	logger   *logrus.Entry
}

func New(c Cluster, store Store, recorder Recorder, triggers Triggers, logger *logrus.Entry) *Controller {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		cluster:  c,
		store:    store,
		recorder: recorder,
		triggers: triggers,
		logger:   logger.WithField("component", "controller"),
	}
}

// Handle dispatches an inbound event by its resources. Unrecognized events
// are logged and return without touching ECS or DynamoDB.
func (c *Controller) Handle(ctx context.Context, resources []string) (Result, error) {
	label, _ := Label(resources)
	result, err := c.Run(ctx, c.triggers.Parse(resources))
	result.Label = label
	return result, err
}

// Run executes a direction.
func (c *Controller) Run(ctx context.Context, direction Direction) (Result, error) {
	switch direction {
	case ScaleDown:
		return c.ScaleDown(ctx)
	case ScaleUp:
		return c.ScaleUp(ctx)
	case Unrecognized:
		c.logger.Warn("unrecognized event, nothing to do")
		return Result{Direction: Unrecognized}, nil
	}
	return Result{}, fmt.Errorf("unknown direction %d", direction)
}

// ScaleDown snapshots every replica service's live desired count and then
// sets each one to zero in listing order. Snapshots are always retaken, so
// two scale-downs in a row record zeros on the second pass.
func (c *Controller) ScaleDown(ctx context.Context) (Result, error) {
	result := Result{Direction: ScaleDown}

	services, err := c.cluster.ListReplicaServices(ctx)
	if err != nil {
		return result, err
	}
	c.logger.WithField("services", len(services)).Info("scaling down")

	created, err := c.prepareStore(ctx)
	result.StoreCreated = created
	if err != nil {
		return result, err
	}

	recorded, err := c.recorder.RecordAll(ctx, services)
	result.Recorded = recorded
	if err != nil {
		return result, err
	}

	for _, svc := range services {
		c.logger.WithField("service", svc.ARN).Info("scaling down => 0")
		if err := c.cluster.UpdateDesiredCount(ctx, svc, 0); err != nil {
			return result, err
		}
		result.Updated = append(result.Updated, Update{Service: svc, DesiredCount: 0})
	}
	return result, nil
}

// ScaleUp restores every replica service to its recorded desired count in
// listing order. A service without a snapshot halts the batch before any
// later service is touched. When the table had to be created there is
// nothing to restore; live counts are recorded instead and services are
// left as they are.
func (c *Controller) ScaleUp(ctx context.Context) (Result, error) {
	result := Result{Direction: ScaleUp}

	services, err := c.cluster.ListReplicaServices(ctx)
	if err != nil {
		return result, err
	}
	c.logger.WithField("services", len(services)).Info("scaling up")

	created, err := c.prepareStore(ctx)
	result.StoreCreated = created
	if err != nil {
		return result, err
	}
	if created {
		recorded, err := c.recorder.RecordAll(ctx, services)
		result.Recorded = recorded
		if err != nil {
			return result, err
		}
		c.logger.Warn("snapshot table was empty, services left at their current counts")
		return result, nil
	}

	for _, svc := range services {
		count, err := c.store.Get(ctx, svc.ShortName())
		if err != nil {
			c.logger.WithError(err).WithField("service", svc.ARN).Error("no usable snapshot, stopping scale-up")
			return result, fmt.Errorf("restore %s: %w", svc.ShortName(), err)
		}
		c.logger.WithFields(logrus.Fields{
			"service":       svc.ARN,
			"desired_count": count,
		}).Info("scaling service")
		if err := c.cluster.UpdateDesiredCount(ctx, svc, count); err != nil {
			return result, err
		}
		result.Updated = append(result.Updated, Update{Service: svc, DesiredCount: count})
	}
	return result, nil
}

// prepareStore probes the snapshot table and creates it when missing. Any
// other probe failure is logged and returned.
func (c *Controller) prepareStore(ctx context.Context) (bool, error) {
	err := c.store.Exists(ctx)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, snapshot.ErrStoreNotFound):
		c.logger.WithField("table", c.store.Table()).Warn("table does not exist, trying to create table")
		if err := c.store.Create(ctx); err != nil {
			return false, err
		}
		return true, nil
	default:
		c.logger.WithError(err).WithField("table", c.store.Table()).Error("unknown error occurred while querying for the table")
		return false, err
	}
}
