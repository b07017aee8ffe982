// Where: internal/recorder/recorder.go
// What: Captures live desired counts into the snapshot table.
// Why: Scale-down must persist what it is about to zero.
package recorder

import (
	"context"
	"fmt"

	"github.com/poruru/ecs-scheduled-scaling/internal/cluster"
	"github.com/poruru/ecs-scheduled-scaling/internal/snapshot"
	"github.com/sirupsen/logrus"
)

// Describer reads a service's live desired count.
type Describer interface {
	DesiredCount(ctx context.Context, svc cluster.Service) (int32, error)
}

// Writer persists one snapshot.
type Writer interface {
	Put(ctx context.Context, snap snapshot.Snapshot) error
}

// Recorder snapshots services one at a time.
type Recorder struct {
	describer Describer
	writer    Writer
	logger    *logrus.Entry
}

func New(describer Describer, writer Writer, logger *logrus.Entry) *Recorder {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Recorder{
		describer: describer,
		writer:    writer,
		logger:    logger.WithField("component", "recorder"),
	}
}

// RecordAll describes each service in order and writes its snapshot. The
// first failure stops the batch; snapshots written before it are kept.
func (r *Recorder) RecordAll(ctx context.Context, services []cluster.Service) ([]snapshot.Snapshot, error) {
	r.logger.WithField("services", len(services)).Info("adding/updating desired counts")

	recorded := make([]snapshot.Snapshot, 0, len(services))
	for _, svc := range services {
		count, err := r.describer.DesiredCount(ctx, svc)
		if err != nil {
			return recorded, fmt.Errorf("record %s: %w", svc.ShortName(), err)
		}
		snap := snapshot.Snapshot{
			Service:      svc.ShortName(),
			ServiceARN:   svc.ARN,
			DesiredCount: count,
		}
		if err := r.writer.Put(ctx, snap); err != nil {
			return recorded, fmt.Errorf("record %s: %w", svc.ShortName(), err)
		}
		r.logger.WithFields(logrus.Fields{
			"service":       snap.Service,
			"desired_count": snap.DesiredCount,
		}).Debug("snapshot recorded")
		recorded = append(recorded, snap)
	}
	return recorded, nil
}
