// Where: internal/scaling/controller_test.go
// What: Tests for the scale-down/scale-up protocol.
// Why: Pin the round trip, lazy table creation, and halt-on-missing-snapshot behavior.
package scaling

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/poruru/ecs-scheduled-scaling/internal/cluster"
	"github.com/poruru/ecs-scheduled-scaling/internal/logging"
	"github.com/poruru/ecs-scheduled-scaling/internal/recorder"
	"github.com/poruru/ecs-scheduled-scaling/internal/snapshot"
)

const (
	upRule   = "arn:aws:events:eu-west-1:123456789012:rule/ECSScheduledScaling-Up"
	downRule = "arn:aws:events:eu-west-1:123456789012:rule/ECSScheduledScaling-Down"
)

var testTriggers = Triggers{Up: "ECSScheduledScaling-Up", Down: "ECSScheduledScaling-Down"}

type fakeCluster struct {
	order     []string
	counts    map[string]int32
	lists     int
	describes int
	updates   []Update
	failOn    string
}

func newFakeCluster(counts ...any) *fakeCluster {
	f := &fakeCluster{counts: map[string]int32{}}
	for i := 0; i+1 < len(counts); i += 2 {
		name := counts[i].(string)
		f.order = append(f.order, name)
		f.counts[name] = int32(counts[i+1].(int))
	}
	return f
}

func arn(name string) string {
	return "arn:aws:ecs:eu-west-1:123456789012:service/prod/" + name
}

func (f *fakeCluster) ListReplicaServices(_ context.Context) ([]cluster.Service, error) {
	f.lists++
	services := make([]cluster.Service, 0, len(f.order))
	for _, name := range f.order {
		services = append(services, cluster.Service{ARN: arn(name)})
	}
	return services, nil
}

func (f *fakeCluster) DesiredCount(_ context.Context, svc cluster.Service) (int32, error) {
	f.describes++
	count, ok := f.counts[svc.ShortName()]
	if !ok {
		return 0, fmt.Errorf("service %s not found", svc.ShortName())
	}
	return count, nil
}

func (f *fakeCluster) UpdateDesiredCount(_ context.Context, svc cluster.Service, count int32) error {
	if svc.ShortName() == f.failOn {
		return errors.New("ServiceNotActiveException")
	}
	f.counts[svc.ShortName()] = count
	f.updates = append(f.updates, Update{Service: svc, DesiredCount: count})
	return nil
}

func (f *fakeCluster) live() []int32 {
	out := make([]int32, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.counts[name])
	}
	return out
}

type fakeStore struct {
	exists    bool
	probeErr  error
	creates   int
	probes    int
	snapshots map[string]int32
	gets      []string
}

func newFakeStore(exists bool) *fakeStore {
	return &fakeStore{exists: exists, snapshots: map[string]int32{}}
}

func (f *fakeStore) Table() string { return "services-desiredCount" }

func (f *fakeStore) Exists(_ context.Context) error {
	f.probes++
	if f.probeErr != nil {
		return f.probeErr
	}
	if !f.exists {
		return fmt.Errorf("describe table: %w", snapshot.ErrStoreNotFound)
	}
	return nil
}

func (f *fakeStore) Create(_ context.Context) error {
	f.creates++
	f.exists = true
	return nil
}

func (f *fakeStore) Put(_ context.Context, snap snapshot.Snapshot) error {
	if !f.exists {
		return snapshot.ErrStoreNotFound
	}
	f.snapshots[snap.Service] = snap.DesiredCount
	return nil
}

func (f *fakeStore) Get(_ context.Context, service string) (int32, error) {
	f.gets = append(f.gets, service)
	count, ok := f.snapshots[service]
	if !ok {
		return 0, fmt.Errorf("%w: %s", snapshot.ErrSnapshotNotFound, service)
	}
	return count, nil
}

func newController(c *fakeCluster, store *fakeStore) *Controller {
	log := logging.Discard()
	return New(c, store, recorder.New(c, store, log), testTriggers, log)
}

func TestScaleDownThenUpRestoresCounts(t *testing.T) {
	c := newFakeCluster("svcA", 3, "svcB", 5)
	store := newFakeStore(true)
	ctrl := newController(c, store)
	ctx := context.Background()

	if _, err := ctrl.Handle(ctx, []string{downRule}); err != nil {
		t.Fatalf("scale down: %v", err)
	}
	if diff := cmp.Diff(map[string]int32{"svcA": 3, "svcB": 5}, store.snapshots); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{0, 0}, c.live()); diff != "" {
		t.Fatalf("live counts after scale down (-want +got):\n%s", diff)
	}

	if _, err := ctrl.Handle(ctx, []string{upRule}); err != nil {
		t.Fatalf("scale up: %v", err)
	}
	if diff := cmp.Diff([]int32{3, 5}, c.live()); diff != "" {
		t.Fatalf("live counts after scale up (-want +got):\n%s", diff)
	}
}

func TestScaleDownTwiceRecordsZeros(t *testing.T) {
	c := newFakeCluster("svcA", 3, "svcB", 5)
	store := newFakeStore(true)
	ctrl := newController(c, store)
	ctx := context.Background()

	if _, err := ctrl.ScaleDown(ctx); err != nil {
		t.Fatalf("first scale down: %v", err)
	}
	if diff := cmp.Diff(map[string]int32{"svcA": 3, "svcB": 5}, store.snapshots); diff != "" {
		t.Fatalf("first snapshot mismatch (-want +got):\n%s", diff)
	}

	if _, err := ctrl.ScaleDown(ctx); err != nil {
		t.Fatalf("second scale down: %v", err)
	}
	// The second pass snapshots the zeros left by the first; original capacity is lost.
	if diff := cmp.Diff(map[string]int32{"svcA": 0, "svcB": 0}, store.snapshots); diff != "" {
		t.Fatalf("second snapshot mismatch (-want +got):\n%s", diff)
	}

	if _, err := ctrl.ScaleUp(ctx); err != nil {
		t.Fatalf("scale up: %v", err)
	}
	if diff := cmp.Diff([]int32{0, 0}, c.live()); diff != "" {
		t.Fatalf("expected services to stay at zero (-want +got):\n%s", diff)
	}
}

func TestScaleDownCreatesMissingTable(t *testing.T) {
	c := newFakeCluster("svcA", 2)
	store := newFakeStore(false)

	result, err := newController(c, store).ScaleDown(context.Background())
	if err != nil {
		t.Fatalf("scale down: %v", err)
	}
	if store.creates != 1 || !result.StoreCreated {
		t.Fatalf("expected table creation, creates=%d created=%v", store.creates, result.StoreCreated)
	}
	if store.snapshots["svcA"] != 2 {
		t.Fatalf("expected snapshot after creation, got %v", store.snapshots)
	}
	if diff := cmp.Diff([]int32{0}, c.live()); diff != "" {
		t.Fatalf("expected service zeroed (-want +got):\n%s", diff)
	}
}

func TestScaleUpCreatesMissingTableWithoutRestoring(t *testing.T) {
	c := newFakeCluster("svcA", 2, "svcB", 1)
	store := newFakeStore(false)

	result, err := newController(c, store).ScaleUp(context.Background())
	if err != nil {
		t.Fatalf("scale up: %v", err)
	}
	if store.creates != 1 || !result.StoreCreated {
		t.Fatalf("expected table creation")
	}
	if diff := cmp.Diff(map[string]int32{"svcA": 2, "svcB": 1}, store.snapshots); diff != "" {
		t.Fatalf("expected live counts recorded (-want +got):\n%s", diff)
	}
	if len(c.updates) != 0 || len(store.gets) != 0 {
		t.Fatalf("expected no restore, updates=%v gets=%v", c.updates, store.gets)
	}
}

func TestUnrecognizedEventTouchesNothing(t *testing.T) {
	c := newFakeCluster("svcA", 2)
	store := newFakeStore(true)

	result, err := newController(c, store).Handle(context.Background(), []string{
		"arn:aws:events:eu-west-1:123456789012:rule/nightly-backup",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Direction != Unrecognized || result.Label != "nightly-backup" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if c.lists != 0 || c.describes != 0 || len(c.updates) != 0 {
		t.Fatalf("expected no ECS calls, lists=%d describes=%d updates=%d", c.lists, c.describes, len(c.updates))
	}
	if store.probes != 0 || store.creates != 0 || len(store.gets) != 0 {
		t.Fatalf("expected no store calls")
	}
}

func TestScaleUpHaltsOnMissingSnapshot(t *testing.T) {
	c := newFakeCluster("svcA", 0, "svcB", 0, "svcC", 0)
	store := newFakeStore(true)
	store.snapshots["svcA"] = 2
	store.snapshots["svcC"] = 4

	result, err := newController(c, store).ScaleUp(context.Background())
	if !errors.Is(err, snapshot.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	want := []Update{{Service: cluster.Service{ARN: arn("svcA")}, DesiredCount: 2}}
	if diff := cmp.Diff(want, c.updates); diff != "" {
		t.Fatalf("expected only svcA restored (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, result.Updated); diff != "" {
		t.Fatalf("result updates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"svcA", "svcB"}, store.gets); diff != "" {
		t.Fatalf("expected lookup to stop at svcB (-want +got):\n%s", diff)
	}
}

func TestUnexpectedStoreErrorIsSurfaced(t *testing.T) {
	c := newFakeCluster("svcA", 2)
	store := newFakeStore(true)
	store.probeErr = errors.New("AccessDeniedException")
	ctrl := newController(c, store)

	if _, err := ctrl.ScaleDown(context.Background()); err == nil {
		t.Fatalf("expected scale down to fail")
	}
	if _, err := ctrl.ScaleUp(context.Background()); err == nil {
		t.Fatalf("expected scale up to fail")
	}
	if store.creates != 0 || c.describes != 0 || len(c.updates) != 0 {
		t.Fatalf("expected no recovery attempts")
	}
}

func TestScaleDownKeepsEarlierUpdatesOnFailure(t *testing.T) {
	c := newFakeCluster("svcA", 3, "svcB", 5, "svcC", 1)
	c.failOn = "svcB"
	store := newFakeStore(true)

	result, err := newController(c, store).ScaleDown(context.Background())
	if err == nil {
		t.Fatalf("expected update failure")
	}
	if diff := cmp.Diff([]int32{0, 5, 1}, c.live()); diff != "" {
		t.Fatalf("expected svcA zeroed and svcC untouched (-want +got):\n%s", diff)
	}
	if len(result.Recorded) != 3 || len(result.Updated) != 1 {
		t.Fatalf("unexpected partial result: %+v", result)
	}
}

func TestRunRejectsUnknownDirection(t *testing.T) {
	ctrl := newController(newFakeCluster(), newFakeStore(true))

	if _, err := ctrl.Run(context.Background(), Direction(42)); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}
