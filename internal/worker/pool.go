// Package worker renders noise tiles in parallel and hands the encoded
// images to a single sink.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MeKo-Tech/fastnoise/internal/tile"
)

// Generator renders and encodes one tile. It is called from several
// goroutines at once.
type Generator interface {
	Generate(ctx context.Context, coords tile.Coords) ([]byte, error)
}

// Sink stores encoded tiles. Put is only ever called from one goroutine;
// Exists may be called concurrently.
type Sink interface {
	Exists(coords tile.Coords) (bool, error)
	Put(coords tile.Coords, data []byte) (location string, err error)
}

// Task is a single tile to render.
type Task struct {
	Coords tile.Coords
	// Force re-renders tiles already present in the sink.
	Force bool
}

// Result is the outcome of one task.
type Result struct {
	Task     Task
	Location string
	Skipped  bool
	Err      error
	Elapsed  time.Duration
}

// Stats is a progress snapshot.
type Stats struct {
	Completed int
	Total     int
	Failed    int
	Skipped   int
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(Stats)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	Sink       Sink
	OnProgress ProgressFunc
}

// Pool renders tiles in parallel.
type Pool struct {
	workers    int
	generator  Generator
	sink       Sink
	onProgress ProgressFunc
}

// New creates a pool. Fewer than one worker means one.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		sink:       cfg.Sink,
		onProgress: cfg.OnProgress,
	}
}

type rendered struct {
	result Result
	data   []byte
}

// Run renders all tasks and blocks until every task has a result. Tasks not
// yet started when ctx is cancelled get ctx.Err() as their error.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task)
	outCh := make(chan rendered, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				outCh <- p.render(ctx, task)
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for i, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				for _, rest := range tasks[i:] {
					outCh <- rendered{result: Result{Task: rest, Err: ctx.Err()}}
				}
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	// Collect on this goroutine so Put is never called concurrently.
	stats := Stats{Total: len(tasks)}
	results := make([]Result, 0, len(tasks))
	for out := range outCh {
		res := out.result
		if res.Err == nil && !res.Skipped && p.sink != nil {
			res.Location, res.Err = p.sink.Put(res.Task.Coords, out.data)
			if res.Err != nil {
				res.Err = fmt.Errorf("failed to store tile %s: %w", res.Task.Coords, res.Err)
			}
		}
		results = append(results, res)

		stats.Completed++
		switch {
		case res.Err != nil:
			stats.Failed++
		case res.Skipped:
			stats.Skipped++
		}
		if p.onProgress != nil {
			p.onProgress(stats)
		}
	}

	return results
}

func (p *Pool) render(ctx context.Context, task Task) rendered {
	res := Result{Task: task}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return rendered{result: res}
	}

	if !task.Force && p.sink != nil {
		exists, err := p.sink.Exists(task.Coords)
		if err != nil {
			res.Err = fmt.Errorf("failed to check tile %s: %w", task.Coords, err)
			return rendered{result: res}
		}
		if exists {
			res.Skipped = true
			return rendered{result: res}
		}
	}

	start := time.Now()
	data, err := p.generator.Generate(ctx, task.Coords)
	res.Elapsed = time.Since(start)
	res.Err = err
	return rendered{result: res, data: data}
}
