// Package batch runs several independent BF programs to completion
// concurrently, one engine per goroutine, never sharing an engine across
// goroutines — the one place this module deliberately exercises §5's
// "host drives multiple engines concurrently" scenario at scale.
//
// Grounded on spec.md §5's host/engine ownership model; the fan-out shape
// (one goroutine per item, errgroup.Group collecting the first error)
// follows golang.org/x/sync/errgroup's own documented worker-pool example,
// which is the one concurrency idiom present anywhere in the retrieved
// corpus's dependency set.
package batch

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"bf/internal/engine"
)

// errNoMoreInput is returned when a job's program asks for input beyond
// what its fixed Input slice supplies.
var errNoMoreInput = errors.New("batch: program requested more input than the job provided")

// Job is one program to run to completion, with its input already fully
// determined (no interactive NeedInput handling inside a batch run — a
// job that asks for more input than it was given fails immediately,
// since a batch has no interactive operator to supply more).
type Job struct {
	Name  string
	Make  func() engine.Engine // constructs a fresh, unstarted engine
	Input []byte
}

// Result is one job's outcome.
type Result struct {
	Name         string
	Output       []byte
	CellsTouched int // furthest tape extent the run reached, for reporting
	Err          error
}

// Run executes every job concurrently and returns results in the same
// order jobs were given, regardless of completion order.
func Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, _ := errgroup.WithContext(ctx)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = runOne(job)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runOne(job Job) Result {
	e := job.Make()
	var out []byte
	next := 0
	for {
		s, err := e.Run()
		if err != nil {
			return Result{Name: job.Name, Output: out, CellsTouched: e.Tape().Touched(), Err: err}
		}
		switch s.Reason {
		case engine.Halted:
			return Result{Name: job.Name, Output: out, CellsTouched: e.Tape().Touched()}
		case engine.HasOutput:
			out = append(out, s.Output)
		case engine.NeedInput:
			if next >= len(job.Input) {
				return Result{Name: job.Name, Output: out, CellsTouched: e.Tape().Touched(), Err: errNoMoreInput}
			}
			e.GiveInput(job.Input[next])
			next++
		}
	}
}
