package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/fastnoise/internal/tile"
)

type fakeGenerator struct {
	delay     time.Duration
	failTiles map[tile.Coords]bool
	calls     atomic.Int32
}

func (f *fakeGenerator) Generate(ctx context.Context, c tile.Coords) ([]byte, error) {
	f.calls.Add(1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.delay):
	}

	if f.failTiles[c] {
		return nil, errors.New("simulated failure")
	}
	return []byte(c.String()), nil
}

// memorySink records puts and flags concurrent Put calls.
type memorySink struct {
	mu      sync.Mutex
	tiles   map[tile.Coords][]byte
	inPut   atomic.Bool
	overlap atomic.Bool
}

func newMemorySink() *memorySink {
	return &memorySink{tiles: make(map[tile.Coords][]byte)}
}

func (m *memorySink) Exists(c tile.Coords) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tiles[c]
	return ok, nil
}

func (m *memorySink) Put(c tile.Coords, data []byte) (string, error) {
	if !m.inPut.CompareAndSwap(false, true) {
		m.overlap.Store(true)
	}
	defer m.inPut.Store(false)
	time.Sleep(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiles[c] = data
	return "mem:" + c.String(), nil
}

func row(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Coords: tile.NewCoords(5, uint32(i), 3)}
	}
	return tasks
}

func TestPool_StoresEveryTile(t *testing.T) {
	gen := &fakeGenerator{delay: 5 * time.Millisecond}
	sink := newMemorySink()
	pool := New(Config{Workers: 4, Generator: gen, Sink: sink})

	tasks := row(12)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task.Coords, r.Err)
		}
		if r.Location != "mem:"+r.Task.Coords.String() {
			t.Errorf("Unexpected location %q for %s", r.Location, r.Task.Coords)
		}
	}
	if len(sink.tiles) != len(tasks) {
		t.Errorf("Expected %d stored tiles, got %d", len(tasks), len(sink.tiles))
	}
	if sink.overlap.Load() {
		t.Error("Sink.Put was called concurrently")
	}
}

func TestPool_Parallelism(t *testing.T) {
	gen := &fakeGenerator{delay: 50 * time.Millisecond}
	pool := New(Config{Workers: 4, Generator: gen})

	start := time.Now()
	results := pool.Run(context.Background(), row(8))
	elapsed := time.Since(start)

	// Two rounds of 50ms with four workers.
	if elapsed > 250*time.Millisecond {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}
	if len(results) != 8 {
		t.Errorf("Expected 8 results, got %d", len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	bad := tile.NewCoords(5, 1, 3)
	gen := &fakeGenerator{failTiles: map[tile.Coords]bool{bad: true}}
	sink := newMemorySink()
	pool := New(Config{Workers: 2, Generator: gen, Sink: sink})

	results := pool.Run(context.Background(), row(3))

	var failed int
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		if r.Task.Coords != bad {
			t.Errorf("Unexpected failure for %s", r.Task.Coords)
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failure, got %d", failed)
	}
	if _, ok := sink.tiles[bad]; ok {
		t.Error("Failed tile must not reach the sink")
	}
}

func TestPool_SkipsExistingUnlessForced(t *testing.T) {
	gen := &fakeGenerator{}
	sink := newMemorySink()
	existing := tile.NewCoords(5, 0, 3)
	sink.tiles[existing] = []byte("old")

	pool := New(Config{Workers: 2, Generator: gen, Sink: sink})
	results := pool.Run(context.Background(), row(2))

	var skipped int
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
	}
	if skipped != 1 || gen.calls.Load() != 1 {
		t.Errorf("Expected 1 skip and 1 render, got %d skips and %d renders", skipped, gen.calls.Load())
	}

	pool.Run(context.Background(), []Task{{Coords: existing, Force: true}})
	if string(sink.tiles[existing]) != existing.String() {
		t.Errorf("Forced task did not overwrite tile, got %q", sink.tiles[existing])
	}
}

func TestPool_Cancellation(t *testing.T) {
	gen := &fakeGenerator{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	tasks := row(10)
	start := time.Now()
	results := pool.Run(ctx, tasks)
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}
	if len(results) != len(tasks) {
		t.Fatalf("Expected a result per task, got %d", len(results))
	}

	var cancelled int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("Expected cancelled results")
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	var calls int
	var last Stats

	pool := New(Config{
		Workers:   2,
		Generator: &fakeGenerator{},
		OnProgress: func(s Stats) {
			calls++
			last = s
		},
	})
	pool.Run(context.Background(), row(3))

	if calls != 3 {
		t.Errorf("Expected 3 progress callbacks, got %d", calls)
	}
	if last.Completed != 3 || last.Total != 3 {
		t.Errorf("Unexpected final stats %+v", last)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	gen := &fakeGenerator{}
	pool := New(Config{Workers: 2, Generator: gen})

	if results := pool.Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}
	if gen.calls.Load() != 0 {
		t.Errorf("Expected 0 generator calls, got %d", gen.calls.Load())
	}
}

func TestFolderSink(t *testing.T) {
	dir := t.TempDir()
	c := tile.NewCoords(3, 5, 2)

	tests := []struct {
		layout string
		want   string
	}{
		{LayoutNested, filepath.Join(dir, "nested", "3", "5", "2.png")},
		{LayoutFlat, filepath.Join(dir, "flat", "z3_x5_y2.png")},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			sink, err := NewFolderSink(filepath.Join(dir, tt.layout), tt.layout)
			if err != nil {
				t.Fatalf("NewFolderSink: %v", err)
			}

			if ok, _ := sink.Exists(c); ok {
				t.Fatal("tile exists before Put")
			}
			path, err := sink.Put(c, []byte("png"))
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if path != tt.want {
				t.Errorf("Put path = %s, want %s", path, tt.want)
			}
			if ok, _ := sink.Exists(c); !ok {
				t.Error("tile missing after Put")
			}
			data, _ := os.ReadFile(path)
			if string(data) != "png" {
				t.Errorf("file content = %q", data)
			}
		})
	}

	if _, err := NewFolderSink(dir, "zigzag"); err == nil {
		t.Error("Expected error for unknown layout")
	}
}
