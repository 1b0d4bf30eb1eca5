// Package scenario replays scripted tracker and registry operations.
package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lucasnoah/stagetrack/internal/logging"
	"github.com/lucasnoah/stagetrack/internal/metrics"
	"github.com/lucasnoah/stagetrack/internal/pipeline"
	"github.com/lucasnoah/stagetrack/internal/registry"
)

// Result records what a single step did.
type Result struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Tracker string `json:"tracker"`
	Detail  string `json:"detail"`
}

// Outcome is everything a run produced.
type Outcome struct {
	Results  []Result
	Registry *registry.Registry
}

// Runner executes scripts. Trackers created by a script live in a workspace
// keyed by the step's tracker field until they are registered; registering
// hands a copy to the registry so later workspace edits do not leak into it.
type Runner struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewRunner creates a Runner. Both arguments may be nil.
func NewRunner(logger *slog.Logger, rec *metrics.Recorder) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{logger: logger, metrics: rec}
}

type run struct {
	*Runner
	workspace map[string]*pipeline.Tracker
	stages    map[string]pipeline.Stage
	reg       *registry.Registry
}

// Run replays script against an empty registry. It stops at the first
// failing step and returns the results gathered so far with the error.
func (r *Runner) Run(ctx context.Context, script *Script) (*Outcome, error) {
	st := &run{
		Runner:    r,
		workspace: make(map[string]*pipeline.Tracker),
		stages:    make(map[string]pipeline.Stage),
		reg:       registry.New(),
	}
	out := &Outcome{Registry: st.reg}

	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		n := i + 1
		detail, err := st.apply(step)
		if err != nil {
			return out, fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		r.logger.Debug("scenario step", "step", n, "op", step.Op, "tracker", step.Tracker, "detail", detail)
		out.Results = append(out.Results, Result{Step: n, Op: step.Op, Tracker: step.Tracker, Detail: detail})
	}

	r.logger.Info("scenario complete", "steps", len(script.Steps), "trackers", st.reg.Len())
	return out, nil
}

func (st *run) apply(step Step) (string, error) {
	switch step.Op {
	case OpCreateTracker:
		if step.Tracker == "" {
			return "", fmt.Errorf("tracker is required")
		}
		st.workspace[step.Tracker] = pipeline.CreateTracker(step.Tracker)
		return "created", nil

	case OpAddStage:
		t, err := st.tracker(step.Tracker)
		if err != nil {
			return "", err
		}
		status, err := parseStatus(step.Status)
		if err != nil {
			return "", err
		}
		stage := pipeline.NewStage(step.Name, status)
		ref := step.Ref
		if ref == "" {
			ref = step.Name
		}
		st.stages[ref] = stage
		pipeline.AddStageToTracker(t, stage)
		st.metrics.StageAdded()
		return fmt.Sprintf("added %s (%s)", stage.Name, stage.Status), nil

	case OpUpdateStage:
		t, err := st.tracker(step.Tracker)
		if err != nil {
			return "", err
		}
		stage, err := st.stage(step.Ref)
		if err != nil {
			return "", err
		}
		status, err := pipeline.ParseStageStatus(step.Status)
		if err != nil {
			return "", err
		}
		applied := t.HasStage(stage.ID)
		pipeline.UpdateStageInTracker(t, stage, status)
		st.metrics.StageUpdated(applied)
		if !applied {
			return fmt.Sprintf("%s not in tracker, unchanged", step.Ref), nil
		}
		return fmt.Sprintf("%s -> %s", step.Ref, status), nil

	case OpCurrentStage:
		t, err := st.tracker(step.Tracker)
		if err != nil {
			return "", err
		}
		cur, ok := pipeline.CurrentStageOf(t)
		if err := st.check(step.Expect, cur, ok); err != nil {
			return "", err
		}
		if !ok {
			return "none", nil
		}
		return cur.Name, nil

	case OpRegister:
		t, err := st.tracker(step.Tracker)
		if err != nil {
			return "", err
		}
		registry.AddTrackerToRegistry(st.reg, t.Clone())
		st.metrics.TrackerAdded(st.reg.Len())
		return fmt.Sprintf("registered with %d stage(s)", t.Len()), nil

	case OpUpdateTracker:
		t, err := st.tracker(step.Tracker)
		if err != nil {
			return "", err
		}
		replaced := st.reg.Contains(t.ID())
		registry.UpdateTrackerInRegistry(st.reg, t.Clone())
		st.metrics.TrackerUpdated(replaced)
		if !replaced {
			return "not registered, unchanged", nil
		}
		return fmt.Sprintf("replaced with %d stage(s)", t.Len()), nil

	default:
		return "", fmt.Errorf("unknown op %q", step.Op)
	}
}

func (st *run) tracker(key string) (*pipeline.Tracker, error) {
	t, ok := st.workspace[key]
	if !ok {
		return nil, fmt.Errorf("unknown tracker %q", key)
	}
	return t, nil
}

func (st *run) stage(ref string) (pipeline.Stage, error) {
	s, ok := st.stages[ref]
	if !ok {
		return pipeline.Stage{}, fmt.Errorf("unknown stage ref %q", ref)
	}
	return s, nil
}

func (st *run) check(expect *string, cur pipeline.Stage, ok bool) error {
	if expect == nil {
		return nil
	}
	if *expect == ExpectNone {
		if ok {
			return fmt.Errorf("expected no current stage, got %q", cur.Name)
		}
		return nil
	}
	want, err := st.stage(*expect)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected current stage %q, got none", *expect)
	}
	if !cur.Equal(want) {
		return fmt.Errorf("expected current stage %q, got %q", *expect, cur.Name)
	}
	return nil
}

// parseStatus treats an empty status as pending.
func parseStatus(name string) (pipeline.StageStatus, error) {
	if name == "" {
		return pipeline.StatusPending, nil
	}
	return pipeline.ParseStageStatus(name)
}
