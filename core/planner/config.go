package planner

import (
	"fmt"
	"time"

	"github.com/kilianp07/pvihk/core/milp"
)

// Config holds the model parameters and the solver budget.
type Config struct {
	// LoadWeight scales the total deviation from the mean load.
	LoadWeight float64 `json:"load_weight"`
	// PresenceWeight scales the number of corrector presence days. Nil
	// means 0.1; an explicit zero drops the term.
	PresenceWeight *float64 `json:"presence_weight"`
	// MinPresentPerDay is the presence floor per exam day. Nil means 3.
	MinPresentPerDay *int `json:"min_present_per_day"`
	// StrictAvailability forbids pairing an exam with a day on which one of
	// its correctors is unavailable. Nil means enabled.
	StrictAvailability *bool `json:"strict_availability"`
	// AllowSlotOverflow keeps going when a day has fewer slots than exams;
	// the surplus exams are reported as unscheduled.
	AllowSlotOverflow bool `json:"allow_slot_overflow"`
	// DefaultTimeSlots fill in requests that carry no zeitslots.
	DefaultTimeSlots [][]string `json:"default_time_slots"`

	Solver SolverConfig `json:"solver"`
}

// SolverConfig bounds the branch-and-bound search.
type SolverConfig struct {
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
	// TimeLimitRatio is the share of the budget from which an optimal result
	// is reported as reached at the time limit.
	TimeLimitRatio float64 `json:"time_limit_ratio"`
	MaxNodes       int     `json:"max_nodes"`
	Tolerance      float64 `json:"lp_tolerance"`
	Engine         string  `json:"engine"`
}

// Model defaults.
const (
	DefaultPresenceWeight   = 0.1
	DefaultMinPresentPerDay = 3
)

// DefaultTimeSlots are the slot templates of the desktop front-end.
var DefaultTimeSlots = [][]string{
	{"09:00", "10:00", "11:00", "12:00"},
	{"14:00", "15:00", "16:00", "17:00"},
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.LoadWeight == 0 {
		c.LoadWeight = 1.0
	}
	if c.PresenceWeight == nil {
		w := DefaultPresenceWeight
		c.PresenceWeight = &w
	}
	if c.MinPresentPerDay == nil {
		n := DefaultMinPresentPerDay
		c.MinPresentPerDay = &n
	}
	if c.StrictAvailability == nil {
		strict := true
		c.StrictAvailability = &strict
	}
	if len(c.DefaultTimeSlots) == 0 {
		c.DefaultTimeSlots = DefaultTimeSlots
	}
	c.Solver.SetDefaults()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.LoadWeight < 0 || c.Presence() < 0 {
		return fmt.Errorf("planner: weights must not be negative")
	}
	if c.PresenceFloor() < 0 {
		return fmt.Errorf("planner: min_present_per_day must not be negative")
	}
	if len(c.DefaultTimeSlots) != 2 {
		return fmt.Errorf("planner: default_time_slots must hold two lists")
	}
	return c.Solver.Validate()
}

// Presence returns the presence weight, defaulting when unset.
func (c Config) Presence() float64 {
	if c.PresenceWeight == nil {
		return DefaultPresenceWeight
	}
	return *c.PresenceWeight
}

// PresenceFloor returns the minimum number of correctors present per day.
func (c Config) PresenceFloor() int {
	if c.MinPresentPerDay == nil {
		return DefaultMinPresentPerDay
	}
	return *c.MinPresentPerDay
}

// Strict reports whether the availability tightening is enabled.
func (c Config) Strict() bool {
	return c.StrictAvailability == nil || *c.StrictAvailability
}

// SetDefaults fills unset fields.
func (c *SolverConfig) SetDefaults() {
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = 10
	}
	if c.TimeLimitRatio == 0 {
		c.TimeLimitRatio = 0.9
	}
	if c.Engine == "" {
		c.Engine = milp.EngineTableau
	}
}

// Validate checks value ranges.
func (c SolverConfig) Validate() error {
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("solver: time_limit_seconds must not be negative")
	}
	if c.TimeLimitRatio < 0 || c.TimeLimitRatio > 1 {
		return fmt.Errorf("solver: time_limit_ratio must be within [0,1]")
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("solver: max_nodes must not be negative")
	}
	switch c.Engine {
	case "", milp.EngineTableau, milp.EngineGonum:
		return nil
	default:
		return fmt.Errorf("solver: unknown engine %q", c.Engine)
	}
}

// Budget is the wall-clock limit handed to the solver.
func (c SolverConfig) Budget() time.Duration {
	return time.Duration(c.TimeLimitSeconds * float64(time.Second))
}

// Threshold is the elapsed time from which an optimal result counts as
// reached at the time limit.
func (c SolverConfig) Threshold() time.Duration {
	return time.Duration(float64(c.Budget()) * c.TimeLimitRatio)
}

func (c SolverConfig) options() milp.Options {
	return milp.Options{
		TimeLimit: c.Budget(),
		MaxNodes:  c.MaxNodes,
		Tolerance: c.Tolerance,
		Engine:    c.Engine,
	}
}
