package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/deepdive/internal/observability"
)

// ErrInterrupted is returned when the run's context is cancelled before the
// report was synthesized.
var ErrInterrupted = errors.New("research interrupted")

// Result is everything a run produced. Report is nil when the run was interrupted.
type Result struct {
	RunID       string
	Plan        *Plan
	Findings    Findings
	Reflections []string
	Report      *Report
}

// Orchestrator drives a research run: plan, execute each step in order,
// reflect periodically, then synthesize and publish the report.
type Orchestrator struct {
	Planner     *Planner
	Executor    StepExecutor
	Reflector   *Reflector
	Synthesizer *Synthesizer
	Publishers  []Publisher
	Observer    observability.Observer

	// ReflectionInterval is the number of attempted steps between reflections.
	ReflectionInterval int
	NewRunID           func() string
}

// Plan builds a plan without executing it.
func (o *Orchestrator) Plan(ctx context.Context, topic, objective string) *Plan {
	ctx = observability.WithRunID(ctx, o.newRunID())
	observability.SetStatus(observability.PhasePlanning, topic)
	defer observability.SetStatus(observability.PhaseIdle, "")
	return o.Planner.Build(ctx, topic, objective)
}

// Run conducts a complete research session. A failing step never stops the
// run. On cancellation the partial result is returned with ErrInterrupted and
// nothing is synthesized or published.
func (o *Orchestrator) Run(ctx context.Context, topic, objective string) (*Result, error) {
	runID := o.newRunID()
	ctx = observability.WithRunID(ctx, runID)
	log.Printf("[Orchestrator] Run %s: %s", runID, topic)

	observability.SetStatus(observability.PhasePlanning, topic)
	plan := o.Planner.Build(ctx, topic, objective)
	res := &Result{RunID: runID, Plan: plan, Findings: Findings{}}

	interval := o.ReflectionInterval
	if interval <= 0 {
		interval = 3
	}

	attempted := 0
	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return o.interrupted(res, err)
		}

		observability.SetStatus(observability.PhaseExecuting, fmt.Sprintf("Step %d: %s", step.ID, step.Description))
		text, err := o.runStep(ctx, plan, step)
		if err != nil {
			log.Printf("[Orchestrator] Step %d failed: %v", step.ID, err)
			step.Status = StatusFailed
			step.Result = "Failed: " + err.Error()
			plan.UpdatedAt = time.Now()
			text = step.Result
		}
		res.Findings[step.ID] = text
		o.emitStep(ctx, step)
		attempted++

		if err := ctx.Err(); err != nil {
			return o.interrupted(res, err)
		}
		if attempted%interval == 0 {
			observability.SetStatus(observability.PhaseReflecting, fmt.Sprintf("after step %d", step.ID))
			res.Reflections = append(res.Reflections, o.Reflector.Reflect(ctx, plan, step.ID))
		}
	}
	if err := ctx.Err(); err != nil {
		return o.interrupted(res, err)
	}

	observability.SetStatus(observability.PhaseSynthesizing, "final report")
	report, err := o.Synthesizer.Synthesize(ctx, runID, plan)
	res.Report = &report

	o.publish(ctx, report)
	observability.SetStatus(observability.PhaseDone, topic)
	return res, err
}

// runStep isolates a single step so that a panic fails only that step.
func (o *Orchestrator) runStep(ctx context.Context, plan *Plan, step *Step) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return o.Executor.Execute(ctx, plan, step)
}

func (o *Orchestrator) publish(ctx context.Context, report Report) {
	for _, p := range o.Publishers {
		data := observability.PublishData{Target: p.Name()}
		if err := p.Publish(ctx, report); err != nil {
			log.Printf("[Orchestrator] Failed to publish report to %s: %v", p.Name(), err)
			data.Error = err.Error()
		}
		o.emit(observability.Event{
			Type:      observability.EventTypePublish,
			RunID:     report.RunID,
			Data:      data,
			Timestamp: time.Now(),
		})
	}
}

func (o *Orchestrator) interrupted(res *Result, cause error) (*Result, error) {
	observability.SetStatus(observability.PhaseIdle, "")
	return res, fmt.Errorf("%w: %v", ErrInterrupted, cause)
}

func (o *Orchestrator) emitStep(ctx context.Context, step *Step) {
	o.emit(observability.Event{
		Type:      observability.EventTypeStep,
		RunID:     observability.RunIDFrom(ctx),
		StepID:    step.ID,
		Data:      observability.StepData{Step: step.Info()},
		Timestamp: time.Now(),
	})
}

func (o *Orchestrator) emit(evt observability.Event) {
	if o.Observer != nil {
		o.Observer.Log(evt)
	}
}

func (o *Orchestrator) newRunID() string {
	if o.NewRunID != nil {
		return o.NewRunID()
	}
	return uuid.NewString()
}
