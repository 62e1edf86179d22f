package sync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // Export
	err    error
}

func (d *mockDestination) Write(_ context.Context, exp Export) error {
	d.writes.Add(1)
	exp.Data = append([]byte(nil), exp.Data...)
	d.last.Store(exp)
	return d.err
}

func (d *mockDestination) lastExport(t *testing.T) Export {
	t.Helper()
	exp, ok := d.last.Load().(Export)
	if !ok {
		t.Fatal("destination was never written")
	}
	return exp
}

type namedDestination struct {
	mockDestination
}

func (d *namedDestination) Name() string { return "named" }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSchedulerStartStop(t *testing.T) {
	ms := newMockStore()
	ms.put("react-flow-persistence", twoNodeFlow)

	dest := &mockDestination{}
	sched := NewScheduler(ms, []Destination{dest}, 20*time.Millisecond, discardLogger())
	sched.Start()

	// The initial sync plus several ticks with no flow change.
	time.Sleep(100 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes != 1 {
		t.Fatalf("expected 1 write for an unchanged flow, got %d", writes)
	}
	exp := dest.lastExport(t)
	// 1 header + 1 flow
	if lines := nonEmptyLines(string(exp.Data)); len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if exp.Flows != 1 || exp.Totals.TotalNodes != 2 {
		t.Errorf("summary = %+v", exp.Summary)
	}
}

func TestSyncOnce_RewritesAfterFlowChange(t *testing.T) {
	ms := newMockStore()
	ms.put("react-flow-persistence", twoNodeFlow)
	dest := &mockDestination{}
	sched := NewScheduler(ms, []Destination{dest}, time.Minute, discardLogger())
	ctx := context.Background()

	for range 2 {
		if err := sched.SyncOnce(ctx); err != nil {
			t.Fatalf("SyncOnce: %v", err)
		}
	}
	if dest.writes.Load() != 1 {
		t.Fatalf("writes = %d, want 1", dest.writes.Load())
	}

	ms.put("react-flow-persistence", `{"nodes":[],"edges":[]}`)
	if err := sched.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if dest.writes.Load() != 2 {
		t.Fatalf("writes = %d, want 2 after the flow changed", dest.writes.Load())
	}
	if got := dest.lastExport(t).Totals.TotalNodes; got != 0 {
		t.Errorf("total nodes = %d, want 0", got)
	}
}

func TestSyncOnce_RetriesFailedDestination(t *testing.T) {
	ms := newMockStore()
	ms.put("react-flow-persistence", twoNodeFlow)
	flaky := &mockDestination{err: errors.New("timeout")}
	steady := &mockDestination{}
	sched := NewScheduler(ms, []Destination{flaky, steady}, time.Minute, discardLogger())
	ctx := context.Background()

	if err := sched.SyncOnce(ctx); err == nil {
		t.Fatal("expected failure")
	}
	flaky.err = nil
	if err := sched.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if flaky.writes.Load() != 2 || steady.writes.Load() != 1 {
		t.Fatalf("writes flaky=%d steady=%d, want 2 and 1", flaky.writes.Load(), steady.writes.Load())
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(newMockStore(), nil, time.Minute, nil)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	ms := newMockStore()
	dest1 := &mockDestination{}
	dest2 := &mockDestination{}

	sched := NewScheduler(ms, []Destination{dest1, dest2}, time.Second, discardLogger())
	sched.Start()

	// Wait for the initial sync.
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if dest1.writes.Load() < 1 {
		t.Fatal("dest1 expected at least 1 write")
	}
	if dest2.writes.Load() < 1 {
		t.Fatal("dest2 expected at least 1 write")
	}
}

func TestSyncOnce_DestinationFailure(t *testing.T) {
	ms := newMockStore()
	ms.put("react-flow-persistence", twoNodeFlow)

	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	bad := &namedDestination{mockDestination{err: errors.New("bucket gone")}}
	good := &mockDestination{}
	sched := NewScheduler(ms, []Destination{bad, good}, time.Minute, logger)

	err := sched.SyncOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected partial failure error, got %v", err)
	}
	if good.writes.Load() != 1 {
		t.Fatalf("healthy destination writes = %d, want 1", good.writes.Load())
	}
	for _, want := range []string{"destination=named", "bucket gone", "failed=1", "1 flow: 2 nodes"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q:\n%s", want, buf.String())
		}
	}
}

func TestSyncOnce_ExportFailure(t *testing.T) {
	ms := newMockStore()
	ms.listErr = errListFailed
	dest := &mockDestination{}
	sched := NewScheduler(ms, []Destination{dest}, time.Minute, discardLogger())

	if err := sched.SyncOnce(context.Background()); !errors.Is(err, errListFailed) {
		t.Fatalf("expected list error, got %v", err)
	}
	if dest.writes.Load() != 0 {
		t.Fatal("destination written despite export failure")
	}
}

func TestDestinationName(t *testing.T) {
	if got := destinationName(3, &mockDestination{}); got != "3" {
		t.Errorf("unnamed destination = %q, want 3", got)
	}
	if got := destinationName(0, &namedDestination{}); got != "named" {
		t.Errorf("named destination = %q, want named", got)
	}
}
