package core

import (
	"bytes"
	"clinicboard/internal/infra/persistence/memory"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServiceRecordsMetricsAndTraces(t *testing.T) {
	metrics := NewExpvarMetricsRecorder("")
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	svc := NewService(memory.NewSeededStore(NewDefaultRulesEngine()),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(noopLogger{}),
	)

	ctx := context.Background()
	if _, _, err := svc.Login(ctx, "E001", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := svc.AddTask(ctx, Task{Title: "Trace me", StatusID: "S_OPEN"}); err != nil {
		t.Fatalf("add task: %v", err)
	}

	snap := metrics.Snapshot()
	if snap.Results["login"]["success"] != 1 {
		t.Fatalf("login metric missing: %+v", snap.Results)
	}
	if snap.Results["add_task"]["success"] != 1 {
		t.Fatalf("add_task metric missing: %+v", snap.Results)
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected two spans, got %d", len(entries))
	}
	if entries[1].Operation != "add_task" || entries[1].Status != "success" {
		t.Fatalf("unexpected span: %+v", entries[1])
	}
	if !strings.Contains(buf.String(), `"operation":"add_task"`) {
		t.Fatalf("span not written to sink: %s", buf.String())
	}
}

func TestWithClockControlsTimestamps(t *testing.T) {
	fixed := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	store := memory.NewSeededStore(NewDefaultRulesEngine())
	store.SetNowFunc(func() time.Time { return fixed })
	svc := NewService(store, WithClock(func() time.Time { return fixed }))

	if _, _, err := svc.Login(context.Background(), "E001", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	entries := svc.Activity()
	if !entries[0].Timestamp.Equal(fixed) {
		t.Fatalf("expected fixed timestamp, got %v", entries[0].Timestamp)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "add_task", true, 25*time.Millisecond)
	rec.Observe(context.Background(), "add_task", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	if !names["clinicboard_service_operation_duration_seconds"] {
		t.Fatalf("duration histogram not registered: %v", names)
	}
	if !names["clinicboard_service_operation_results_total"] {
		t.Fatalf("result counter not registered: %v", names)
	}

	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration failure")
	}
}
