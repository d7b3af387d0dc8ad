// Package pipeline implements the Pipeline Coordinator of spec.md §4.H: it
// sequences the five Stage Updaters for a date window, short-circuiting on
// a critical-stage failure, and reports what each stage did.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/stage"
)

// criticalSteps are the stages whose failure aborts the remaining window
// (spec.md §4.G, §4.H).
var criticalSteps = map[int]bool{1: true, 2: true, 5: true}

// Updater is the common shape every Stage Updater implements against the
// Coordinator.
type Updater interface {
	Run(ctx context.Context, start, end time.Time, cupFilter string, force bool) (stage.Report, error)
}

// s1Adapter lets S1Updater (whose Run has no cup_filter/force parameters,
// since S1 has no per-cup or incremental scope) satisfy Updater.
type s1Adapter struct {
	run func(ctx context.Context, start, end time.Time) (stage.Report, error)
}

func (a s1Adapter) Run(ctx context.Context, start, end time.Time, _ string, _ bool) (stage.Report, error) {
	return a.run(ctx, start, end)
}

// Coordinator holds one Updater per stage, keyed by step number 1..5.
type Coordinator struct {
	updaters map[int]Updater
}

// New builds a Coordinator. s1Run is S1Updater.Run; the rest are full
// Updaters (they accept cup_filter and force).
func New(s1Run func(ctx context.Context, start, end time.Time) (stage.Report, error), s2, s3, s4, s5 Updater) *Coordinator {
	return &Coordinator{updaters: map[int]Updater{
		1: s1Adapter{run: s1Run},
		2: s2,
		3: s3,
		4: s4,
		5: s5,
	}}
}

// Result is the Coordinator's output: a report per executed step plus
// whether the window as a whole fully succeeded.
type Result struct {
	PerStep map[int]stage.Report
	TotalOK bool
}

// Run normalizes and sorts steps, then executes them in ascending order,
// short-circuiting when a critical stage (S1, S2, S5) fails (spec.md §4.H).
func (c *Coordinator) Run(ctx context.Context, start, end time.Time, steps []string, cupFilter string, force bool) (Result, error) {
	normalized, err := normalizeSteps(steps)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: %w", err)
	}

	result := Result{PerStep: make(map[int]stage.Report), TotalOK: true}

	for _, step := range normalized {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		updater, ok := c.updaters[step]
		if !ok {
			return result, fmt.Errorf("pipeline: no updater registered for step %d", step)
		}

		report, runErr := updater.Run(ctx, start, end, cupFilter, force)
		if runErr != nil {
			report.OK = false
			if report.Message == "" {
				report.Message = runErr.Error()
			}
		}
		result.PerStep[step] = report

		if !report.OK {
			result.TotalOK = false
			if criticalSteps[step] {
				return result, nil
			}
		}
	}

	return result, nil
}

// normalizeSteps accepts both "1".."5" and "step1".."step5" spellings,
// dedups, and returns them sorted ascending (spec.md §4.H).
func normalizeSteps(steps []string) ([]int, error) {
	seen := make(map[int]bool, len(steps))
	for _, s := range steps {
		n, err := parseStep(s)
		if err != nil {
			return nil, err
		}
		seen[n] = true
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func parseStep(s string) (int, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "step")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid step %q", s)
	}
	if n < 1 || n > 5 {
		return 0, fmt.Errorf("step %q out of range 1..5", s)
	}
	return n, nil
}
