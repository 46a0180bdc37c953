package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func recvChange(t *testing.T, ch <-chan ChangeEvent, timeout time.Duration) (ChangeEvent, bool) {
	t.Helper()
	select {
	case event, ok := <-ch:
		return event, ok
	case <-time.After(timeout):
		return ChangeEvent{}, false
	}
}

func TestFileWatcherSeesDatasetWrite(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "graph.json")
	positions := filepath.Join(dir, "positions.json")
	if err := os.WriteFile(dataset, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	fw, err := NewFileWatcher(dataset, positions)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fw.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(dataset, []byte(`{"nodes":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	event, ok := recvChange(t, fw.Events(), 2*time.Second)
	if !ok {
		t.Fatal("no change event for dataset write")
	}
	if event.Type != ChangeDataset {
		t.Errorf("event type = %v, want dataset", event.Type)
	}
}

func TestFileWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(dataset, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	fw, err := NewFileWatcher(dataset, filepath.Join(dir, "positions.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fw.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	if event, ok := recvChange(t, fw.Events(), 300*time.Millisecond); ok {
		t.Errorf("unexpected event for unrelated file: %+v", event)
	}
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 5; i++ {
		input <- ChangeEvent{Type: ChangeDataset, Paths: []string{"graph.json"}}
	}

	event, ok := recvChange(t, d.Output(), time.Second)
	if !ok {
		t.Fatal("debouncer never flushed")
	}
	if event.Type != ChangeDataset || len(event.Paths) != 5 {
		t.Errorf("flushed event = %+v, want 5 dataset paths", event)
	}

	if extra, ok := recvChange(t, d.Output(), 100*time.Millisecond); ok {
		t.Errorf("unexpected second flush: %+v", extra)
	}
}

func TestDebouncerMaxWaitBoundsLatency(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, time.Hour, 100*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	start := time.Now()
	input <- ChangeEvent{Type: ChangePositions, Paths: []string{"positions.json"}}

	if _, ok := recvChange(t, d.Output(), time.Second); !ok {
		t.Fatal("max wait never fired")
	}
	if elapsed := time.Since(start); elapsed > 800*time.Millisecond {
		t.Errorf("flush took %v, want ~100ms from max wait", elapsed)
	}
}

func TestDebouncerOrdersDatasetFirst(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangePositions, Paths: []string{"positions.json"}}
	input <- ChangeEvent{Type: ChangeDataset, Paths: []string{"graph.json"}}

	first, ok := recvChange(t, d.Output(), time.Second)
	if !ok || first.Type != ChangeDataset {
		t.Errorf("first flush = %+v, want dataset", first)
	}
	second, ok := recvChange(t, d.Output(), time.Second)
	if !ok || second.Type != ChangePositions {
		t.Errorf("second flush = %+v, want positions", second)
	}
}

func TestPlanReload(t *testing.T) {
	tests := []struct {
		name  string
		event ChangeEvent
		want  ReloadPlan
	}{
		{
			"dataset change reloads everything",
			ChangeEvent{Type: ChangeDataset, Paths: []string{"graph.json"}},
			ReloadPlan{ReloadDataset: true, ReloadPositions: true, ChangedFiles: []string{"graph.json"}},
		},
		{
			"positions change reloads positions only",
			ChangeEvent{Type: ChangePositions, Paths: []string{"positions.json"}},
			ReloadPlan{ReloadPositions: true, ChangedFiles: []string{"positions.json"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanReload(tt.event)
			if got.ReloadDataset != tt.want.ReloadDataset || got.ReloadPositions != tt.want.ReloadPositions {
				t.Errorf("plan = %+v, want %+v", got, tt.want)
			}
		})
	}
}
