// Package planner turns a corrector distribution request into a binary
// program, solves it and interprets the solution into a schedule.
package planner

import (
	"context"
	"time"

	"github.com/kilianp07/pvihk/core/logger"
	"github.com/kilianp07/pvihk/core/milp"
	"github.com/kilianp07/pvihk/core/model"
)

// Planner runs the optimisation pipeline. Each call builds its own model, so
// a Planner can be shared; callers limit how many solves run at once.
type Planner struct {
	cfg    Config
	solver Solver
	log    logger.Logger
	now    func() time.Time
}

// Option customises a Planner.
type Option func(*Planner)

// WithSolver replaces the branch-and-bound backend.
func WithSolver(s Solver) Option {
	return func(p *Planner) { p.solver = s }
}

// WithClock replaces the clock used to time the solve.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// New returns a Planner for cfg. Unset configuration values take their
// defaults.
func New(cfg Config, log logger.Logger, opts ...Option) (*Planner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	p := &Planner{cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.solver == nil {
		sopts := cfg.Solver.options()
		sopts.Logger = log
		s, err := milp.NewSolver(sopts)
		if err != nil {
			return nil, err
		}
		p.solver = s
	}
	return p, nil
}

// Config returns the effective configuration.
func (pl *Planner) Config() Config { return pl.cfg }

// Prepare applies the default slots and validates in.
func (pl *Planner) Prepare(in model.Input) (*model.Plan, error) {
	in = in.WithDefaultSlots(pl.cfg.DefaultTimeSlots)
	return model.NewPlan(in, model.AllowSlotOverflow(pl.cfg.AllowSlotOverflow))
}

// Optimize validates in, solves the distribution problem and interprets the
// solution. It returns a *model.ValidationError for malformed input and an
// *OptimizationError when the solver finds no assignment.
func (pl *Planner) Optimize(ctx context.Context, in model.Input) (*Result, error) {
	plan, err := pl.Prepare(in)
	if err != nil {
		return nil, err
	}
	return pl.OptimizePlan(ctx, plan)
}

// OptimizePlan runs the pipeline on an already validated plan.
func (pl *Planner) OptimizePlan(ctx context.Context, plan *model.Plan) (*Result, error) {
	p, v := buildConstraints(plan, pl.cfg)
	addObjective(p, v, plan, pl.cfg)
	if sp, ok := buildStart(plan, pl.cfg); ok {
		sp.apply(p, v)
	} else {
		pl.log.Debugf("no start assignment for %d exams, solving without incumbent", len(plan.Exams))
	}
	pl.log.Debugw("model built", map[string]any{
		"exams":       len(plan.Exams),
		"correctors":  len(plan.Correctors),
		"vars":        p.NumVars(),
		"constraints": p.NumConstraints(),
	})

	sol, status, err := pl.solve(ctx, p)
	if err != nil {
		pl.log.Errorf("optimization failed: %v", err)
		return nil, err
	}
	res, err := interpret(plan, v, sol, status)
	if err != nil {
		return nil, err
	}
	if len(res.Unscheduled) > 0 {
		pl.log.Warnf("%d exams exceed the available time slots and are not scheduled", len(res.Unscheduled))
	}
	pl.log.Infow("optimization finished", map[string]any{
		"status":    res.Status,
		"objective": res.Objective,
		"nodes":     res.Nodes,
		"elapsed":   res.Elapsed.String(),
	})
	return res, nil
}
