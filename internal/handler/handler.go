// Where: internal/handler/handler.go
// What: Lambda handler for EventBridge scheduled events.
// Why: Translate the scheduled rule event into one controller invocation.
package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/poruru/ecs-scheduled-scaling/internal/scaling"
	"github.com/sirupsen/logrus"
)

// Runner is the controller surface the handler needs.
type Runner interface {
	Handle(ctx context.Context, resources []string) (scaling.Result, error)
}

// Handler processes scheduled events.
type Handler struct {
	runner Runner
	logger *logrus.Entry
}

func New(runner Runner, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{runner: runner, logger: logger}
}

// Handle runs the event. Returning an error marks the Lambda invocation failed.
func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) error {
	_, err := h.Process(ctx, event)
	return err
}

// Process runs the event and returns what the controller did.
func (h *Handler) Process(ctx context.Context, event events.CloudWatchEvent) (scaling.Result, error) {
	logger := h.logger.WithFields(logrus.Fields{
		"event_id":  event.ID,
		"resources": event.Resources,
	})
	logger.Debug("received event")

	result, err := h.runner.Handle(ctx, event.Resources)
	fields := logrus.Fields{
		"direction":     result.Direction.String(),
		"label":         result.Label,
		"store_created": result.StoreCreated,
		"recorded":      len(result.Recorded),
		"updated":       len(result.Updated),
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("scaling failed")
		return result, err
	}
	logger.WithFields(fields).Info("scaling finished")
	return result, nil
}
