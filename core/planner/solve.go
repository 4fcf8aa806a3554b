package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/pvihk/core/milp"
)

// Reported statuses of a successful optimisation.
const (
	StatusOptimal          = "Optimal"
	StatusOptimalTimeLimit = "Optimal (after time limit)"
	StatusBestFound        = "Best solution found (not optimal)"
)

// OptimizationError is returned when the solver produced no usable
// assignment. Status carries the raw solver status.
type OptimizationError struct {
	Status string
}

func (e *OptimizationError) Error() string {
	return "optimization unsuccessful, status: " + e.Status
}

// IsOptimizationError reports whether err wraps an *OptimizationError.
func IsOptimizationError(err error) bool {
	var oe *OptimizationError
	return errors.As(err, &oe)
}

// Solver is the branch-and-bound backend.
type Solver interface {
	Solve(ctx context.Context, p *milp.Problem) (milp.Solution, error)
}

// reportStatus maps a raw solver status and the elapsed wall time to the
// status reported to the caller.
func reportStatus(raw milp.Status, elapsed, threshold time.Duration) (string, error) {
	switch raw {
	case milp.StatusInfeasible, milp.StatusUnbounded, milp.StatusUndefined, milp.StatusNotSolved:
		return "", &OptimizationError{Status: raw.String()}
	case milp.StatusOptimal:
		if elapsed >= threshold {
			return StatusOptimalTimeLimit, nil
		}
		return StatusOptimal, nil
	case milp.StatusIntegerFeasible:
		return StatusBestFound, nil
	default:
		return raw.String(), nil
	}
}

// solve runs the solver on p and maps its status. Engine failures are
// wrapped and returned unchanged in kind.
func (pl *Planner) solve(ctx context.Context, p *milp.Problem) (milp.Solution, string, error) {
	start := pl.now()
	sol, err := pl.solver.Solve(ctx, p)
	elapsed := pl.now().Sub(start)
	if err != nil {
		return milp.Solution{}, "", fmt.Errorf("planner: solver failure: %w", err)
	}
	status, err := reportStatus(sol.Status, elapsed, pl.cfg.Solver.Threshold())
	if err != nil {
		return milp.Solution{}, "", err
	}
	return sol, status, nil
}
