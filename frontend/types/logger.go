package types

import (
	"log/slog"

	"github.com/u-train/luau/internal/log"
)

// StepLogger observes the solver's progress: one snapshot pair per dispatch
// attempt, an edge event per block/unblock, and initial/final state captures.
type StepLogger interface {
	CaptureInitialState(s *Solver)
	PrepareStep(c *Constraint, force bool)
	CommitStep(c *Constraint, success bool)
	BlockEdge(c *Constraint, key any)
	UnblockEdge(key any)
	CaptureFinalState(s *Solver)
}

type nopStepLogger struct{}

func (nopStepLogger) CaptureInitialState(*Solver)      {}
func (nopStepLogger) PrepareStep(*Constraint, bool)    {}
func (nopStepLogger) CommitStep(*Constraint, bool)     {}
func (nopStepLogger) BlockEdge(*Constraint, any)       {}
func (nopStepLogger) UnblockEdge(any)                  {}
func (nopStepLogger) CaptureFinalState(*Solver)        {}

// NewSlogStepLogger returns a StepLogger that narrates the solve on the
// module's structured logger.
func NewSlogStepLogger() StepLogger {
	return &slogStepLogger{logger: log.DefaultLogger.With("section", "solver")}
}

type slogStepLogger struct {
	logger *slog.Logger

	// pending holds the constraint between PrepareStep and CommitStep.
	pending *Constraint
	force   bool
}

func (l *slogStepLogger) CaptureInitialState(s *Solver) {
	l.logger.Debug("solver start",
		"module", s.currentModuleName,
		"unsolved", len(s.store.unsolved),
	)
}

func (l *slogStepLogger) PrepareStep(c *Constraint, force bool) {
	l.pending = c
	l.force = force
}

func (l *slogStepLogger) CommitStep(c *Constraint, success bool) {
	if l.pending != c {
		return
	}
	l.pending = nil
	l.logger.Debug("step",
		"kind", c.Payload.Kind(),
		"location", c.Location.String(),
		"force", l.force,
		"success", success,
	)
}

func (l *slogStepLogger) BlockEdge(c *Constraint, key any) {
	l.logger.Debug("block", "kind", c.Payload.Kind(), "on", describeKey(key))
}

func (l *slogStepLogger) UnblockEdge(key any) {
	l.logger.Debug("unblock", "key", describeKey(key))
}

func (l *slogStepLogger) CaptureFinalState(s *Solver) {
	l.logger.Debug("solver finish",
		"module", s.currentModuleName,
		"unsolved", len(s.store.unsolved),
		"errors", s.Errors.HasError(),
	)
}

func describeKey(key any) string {
	switch k := key.(type) {
	case TypeId:
		return TypeName(k)
	case TypePackId:
		return PackName(k)
	case *Constraint:
		return "constraint " + k.Payload.Kind()
	}
	return "?"
}
