package types

import (
	"time"

	"github.com/benbjohnson/immutable"
	set "github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"github.com/u-train/luau/frontend/ast"
	"github.com/u-train/luau/frontend/ilerr"
)

// ErrTimeLimit is returned by Run when the wall-clock deadline passes.
var ErrTimeLimit = errors.New("type inference time limit exceeded")

// ErrUserCancelled is returned by Run when the cancellation token fires.
var ErrUserCancelled = errors.New("type inference cancelled")

// RequireCycle is a known import cycle through the current module. Requiring
// a module on such a path resolves to any rather than diverging.
type RequireCycle struct {
	Location ast.Range
	Path     []string
}

// UpperBoundContributor records one narrowing of a free type's upper bound,
// kept for error rendering.
type UpperBoundContributor struct {
	Location ast.Range
	Ty       TypeId
}

// SolverOptions configures collaborators and limits. Nil collaborators get
// working defaults.
type SolverOptions struct {
	ModuleName     string
	ModuleResolver ModuleResolver
	RequireCycles  []RequireCycle
	NewUnifier     func(s *Solver, c *Constraint) Unifier
	Simplifier     Simplifier
	FamilyReducer  FamilyReducer
	StepLogger     StepLogger
	Limits         Limits
}

// Solver drives a bag of constraints to quiescence, mutating the type graph
// in place. One instance solves one module and is not reusable.
type Solver struct {
	arena    *Arena
	builtins *Builtins

	rootScope         *Scope
	currentModuleName string

	store    *constraintStore
	blocking blockingIndex

	// unresolvedConstraints counts, per free type, the outstanding subtyping
	// constraints that mention it.
	unresolvedConstraints map[TypeId]int

	instantiatedAliases     *immutable.Map[*instantiationSignature, TypeId]
	uninhabitedTypeFamilies *set.Set[TypeId]
	upperBoundContributors  *immutable.Map[TypeId, []UpperBoundContributor]

	Errors *ilerr.Errors
	// Failures collects broken internal invariants. A non-empty Failures
	// means the solve result cannot be trusted.
	Failures []error

	AstTypes                 map[ast.Range]TypeId
	AstExpectedTypes         map[ast.Range]TypeId
	AstOverloadResolvedTypes map[ast.Range]TypeId
	AstForInNextTypes        map[ast.Range]TypeId

	moduleResolver ModuleResolver
	requireCycles  []RequireCycle
	newUnifier     func(s *Solver, c *Constraint) Unifier
	simplifier     Simplifier
	familyReducer  FamilyReducer
	stepLogger     StepLogger

	limits Limits
}

func NewSolver(arena *Arena, builtins *Builtins, rootScope *Scope, constraints []*Constraint, opts SolverOptions) *Solver {
	if opts.ModuleResolver == nil {
		opts.ModuleResolver = MapResolver{}
	}
	if opts.NewUnifier == nil {
		opts.NewUnifier = newBoundsUnifier
	}
	if opts.Simplifier == nil {
		opts.Simplifier = NewSimplifier(arena, builtins)
	}
	if opts.FamilyReducer == nil {
		opts.FamilyReducer = NewFamilyReducer(arena, builtins)
	}
	if opts.StepLogger == nil {
		opts.StepLogger = nopStepLogger{}
	}
	if opts.Limits.RecursionLimit == 0 {
		opts.Limits.RecursionLimit = defaultRecursionLimit
	}

	s := &Solver{
		arena:                    arena,
		builtins:                 builtins,
		rootScope:                rootScope,
		currentModuleName:        opts.ModuleName,
		store:                    newConstraintStore(constraints),
		blocking:                 newBlockingIndex(),
		unresolvedConstraints:    map[TypeId]int{},
		instantiatedAliases:      immutable.NewMap[*instantiationSignature, TypeId](signatureHasher{}),
		uninhabitedTypeFamilies:  set.New[TypeId](0),
		upperBoundContributors:   immutable.NewMap[TypeId, []UpperBoundContributor](typeIdHasher{}),
		AstTypes:                 map[ast.Range]TypeId{},
		AstExpectedTypes:         map[ast.Range]TypeId{},
		AstOverloadResolvedTypes: map[ast.Range]TypeId{},
		AstForInNextTypes:        map[ast.Range]TypeId{},
		moduleResolver:           opts.ModuleResolver,
		requireCycles:            opts.RequireCycles,
		newUnifier:               opts.NewUnifier,
		simplifier:               opts.Simplifier,
		familyReducer:            opts.FamilyReducer,
		stepLogger:               opts.StepLogger,
		limits:                   opts.Limits,
	}

	for _, c := range constraints {
		for _, dep := range c.Dependencies {
			s.block(dep, c)
		}
		for _, free := range c.GetFreeTypes() {
			s.unresolvedConstraints[free]++
		}
	}

	return s
}

// Run drives the constraint set to quiescence. It returns nil on quiescence
// and when the iteration limit stops the run (which reports CodeTooComplex),
// a sentinel wrapping ErrTimeLimit / ErrUserCancelled on a non-local exit, or
// the error of an internal failure, which is also recorded in Failures.
// Structural errors never abort the run; they accumulate in Errors.
func (s *Solver) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(internalError)
			if !ok {
				panic(r)
			}
			s.Failures = append(s.Failures, errors.Wrapf(ie.err, "module %s", s.currentModuleName))
			err = ie.err
		}
	}()

	s.stepLogger.CaptureInitialState(s)

	passes := 0
	for {
		if s.limits.IterationLimit > 0 && passes >= s.limits.IterationLimit {
			s.reportError(ilerr.NewCodeTooComplex{Positioner: s.anyUnsolvedLocation()})
			break
		}
		passes++

		progress, err := s.runPass(false)
		if err != nil {
			return err
		}
		if progress {
			continue
		}
		progress, err = s.runPass(true)
		if err != nil {
			return err
		}
		if !progress {
			break
		}
	}

	s.stepLogger.CaptureFinalState(s)
	return nil
}

// IsDone reports whether every constraint has been dispatched.
func (s *Solver) IsDone() bool { return s.store.isDone() }

// Randomize shuffles the unsolved sequence. Constraint order must not affect
// the fixed point, only which order-dependent bugs get exposed, so this is
// test tooling rather than part of solving.
func (s *Solver) Randomize(seed uint32) {
	unsolved := s.store.unsolved
	if len(unsolved) == 0 {
		return
	}
	rng := seed
	for i := len(unsolved) - 1; i > 0; i-- {
		rng = rng*1664525 + 1013904223
		j := int(rng % uint32(i+1))
		unsolved[i], unsolved[j] = unsolved[j], unsolved[i]
	}
}

// UpperBoundContributors exposes the per-free-type narrowing history for
// error rendering.
func (s *Solver) UpperBoundContributors(ty TypeId) []UpperBoundContributor {
	contribs, _ := s.upperBoundContributors.Get(Follow(ty))
	return contribs
}

// RootScope returns the scope the generator seeded the solve with.
func (s *Solver) RootScope() *Scope { return s.rootScope }

// runPass scans unsolved front to back once. In force mode the first
// successful dispatch ends the pass, so a normal pass can immediately run
// with the new information.
func (s *Solver) runPass(force bool) (bool, error) {
	progress := false
	i := 0
	for i < len(s.store.unsolved) {
		c := s.store.unsolved[i]
		if !force && s.blocking.isBlocked(c) {
			i++
			continue
		}
		if err := s.checkLimits(); err != nil {
			return progress, err
		}
		s.stepLogger.PrepareStep(c, force)
		success := s.tryDispatch(c, force)
		s.stepLogger.CommitStep(c, success)
		if !success {
			i++
			continue
		}
		progress = true
		s.store.removeAt(i)
		s.unblockConstraint(c)
		for _, free := range c.GetFreeTypes() {
			// saturate at zero: some kinds create more references than the
			// subtyping map counted
			if n := s.unresolvedConstraints[free]; n > 1 {
				s.unresolvedConstraints[free] = n - 1
			} else {
				delete(s.unresolvedConstraints, free)
			}
		}
		if force {
			return true, nil
		}
	}
	return progress, nil
}

func (s *Solver) checkLimits() error {
	if s.limits.FinishTime != nil && time.Now().After(*s.limits.FinishTime) {
		return errors.Wrapf(ErrTimeLimit, "module %s", s.currentModuleName)
	}
	if s.limits.Cancellation != nil {
		select {
		case <-s.limits.Cancellation.Done():
			return errors.Wrapf(ErrUserCancelled, "module %s", s.currentModuleName)
		default:
		}
	}
	return nil
}

func (s *Solver) tryDispatch(c *Constraint, force bool) bool {
	switch p := c.Payload.(type) {
	case *SubtypeConstraint:
		return s.tryDispatchSubtype(c, p)
	case *PackSubtypeConstraint:
		return s.tryDispatchPackSubtype(c, p)
	case *EqualityConstraint:
		return s.tryDispatchEquality(c, p)
	case *GeneralizationConstraint:
		return s.tryDispatchGeneralization(c, p, force)
	case *IterableConstraint:
		return s.tryDispatchIterable(c, p, force)
	case *NameConstraint:
		return s.tryDispatchName(c, p, force)
	case *TypeAliasExpansionConstraint:
		return s.tryDispatchTypeAliasExpansion(c, p)
	case *FunctionCallConstraint:
		return s.tryDispatchFunctionCall(c, p, force)
	case *FunctionCheckConstraint:
		return s.tryDispatchFunctionCheck(c, p)
	case *PrimitiveTypeConstraint:
		return s.tryDispatchPrimitiveType(c, p, force)
	case *HasPropConstraint:
		return s.tryDispatchHasProp(c, p, force)
	case *SetPropConstraint:
		return s.tryDispatchSetProp(c, p)
	case *HasIndexerConstraint:
		return s.tryDispatchHasIndexer(c, p, force)
	case *SetIndexerConstraint:
		return s.tryDispatchSetIndexer(c, p, force)
	case *UnpackConstraint:
		return s.tryDispatchUnpack(c, p)
	case *Unpack1Constraint:
		return s.tryDispatchUnpack1(c, p)
	case *ReduceConstraint:
		return s.tryDispatchReduce(c, p, force)
	case *ReducePackConstraint:
		return s.tryDispatchReducePack(c, p, force)
	}
	ice("unknown constraint payload %T", c.Payload)
	return false
}

// block registers c as waiting on target. It returns false so handlers can
// `return s.block(...)` when they want to wait.
func (s *Solver) block(target blockedKey, c *Constraint) bool {
	switch k := target.(type) {
	case TypeId:
		target = Follow(k)
	case TypePackId:
		target = FollowPack(k)
	}
	if s.blocking.insert(target, c) {
		s.stepLogger.BlockEdge(c, target)
	}
	return false
}

func (s *Solver) unblockConstraint(c *Constraint) {
	s.blocking.release(c)
	s.stepLogger.UnblockEdge(c)
}

// unblockType releases every constraint indexed under ty and under every
// representative its Bound chain resolves to, each visited at most once.
func (s *Solver) unblockType(ty TypeId) {
	seen := map[TypeId]struct{}{}
	for {
		if _, ok := seen[ty]; ok {
			ice("self-bound Bound chain while unblocking %v", TypeName(ty))
		}
		seen[ty] = struct{}{}
		s.blocking.release(ty)
		s.stepLogger.UnblockEdge(ty)
		b, ok := ty.variant.(*BoundType)
		if !ok {
			return
		}
		ty = b.Boundee
	}
}

func (s *Solver) unblockPack(tp TypePackId) {
	seen := map[TypePackId]struct{}{}
	for {
		if _, ok := seen[tp]; ok {
			ice("self-bound BoundPack chain while unblocking")
		}
		seen[tp] = struct{}{}
		s.blocking.release(tp)
		s.stepLogger.UnblockEdge(tp)
		b, ok := tp.variant.(*BoundPack)
		if !ok {
			return
		}
		tp = b.Boundee
	}
}

// inheritBlocks makes every constraint currently waiting on source wait on
// addition as well.
func (s *Solver) inheritBlocks(source, addition *Constraint) {
	for _, c := range s.blocking.waitingOn(source) {
		s.block(addition, c)
	}
}

// isBlockedType reports whether ty cannot yet be inspected: it is a
// placeholder, a counting local, or a family instance not yet known to be
// uninhabited.
func (s *Solver) isBlockedType(ty TypeId) bool {
	ty = Follow(ty)
	switch v := ty.variant.(type) {
	case *BlockedType, *PendingExpansionType:
		return true
	case *LocalType:
		return v.BlockCount > 0
	case *TypeFamilyInstanceType:
		return !s.uninhabitedTypeFamilies.Contains(ty)
	default:
		return false
	}
}

func (s *Solver) isBlockedPack(tp TypePackId) bool {
	tp = FollowPack(tp)
	switch tp.variant.(type) {
	case *BlockedPack, *FamilyInstancePack:
		return true
	default:
		return false
	}
}

// hasUnresolvedConstraints reports whether outstanding subtype constraints
// still mention ty, so commit decisions about it should wait.
func (s *Solver) hasUnresolvedConstraints(ty TypeId) bool {
	return s.unresolvedConstraints[Follow(ty)] > 0
}

// pushConstraint appends a solver-synthesized constraint to the work list.
func (s *Solver) pushConstraint(scope *Scope, location ast.Range, payload ConstraintPayload) *Constraint {
	c := s.store.push(scope, location, payload)
	for _, free := range c.GetFreeTypes() {
		s.unresolvedConstraints[free]++
	}
	return c
}

// bindBlockedType commits a Blocked or PendingExpansion node to resultTy.
// Only the owning constraint may perform the bind. When the result resolves
// back to rootTy the error type is substituted so no Bound cycle forms.
func (s *Solver) bindBlockedType(blockedTy, resultTy, rootTy TypeId, c *Constraint) {
	resultTy = Follow(resultTy)
	switch v := blockedTy.variant.(type) {
	case *BlockedType:
		if v.Owner != nil && v.Owner != c {
			ice("constraint %s attempted to bind a blocked type owned by another constraint", c.Payload.Kind())
		}
	case *PendingExpansionType:
	default:
		ice("bindBlockedType on non-placeholder %v", TypeName(blockedTy))
	}
	if resultTy == Follow(rootTy) {
		resultTy = s.builtins.ErrorRecoveryType()
	}
	s.arena.BindTo(blockedTy, resultTy)
	s.unblockType(blockedTy)
}

func (s *Solver) bindBlockedPack(blockedTp, resultTp TypePackId, c *Constraint) {
	resultTp = FollowPack(resultTp)
	if v, ok := blockedTp.variant.(*BlockedPack); ok {
		if v.Owner != nil && v.Owner != c {
			ice("constraint %s attempted to bind a blocked pack owned by another constraint", c.Payload.Kind())
		}
	} else {
		ice("bindBlockedPack on non-placeholder pack")
	}
	if resultTp == blockedTp {
		resultTp = s.builtins.ErrorRecoveryTypePack()
	}
	s.arena.BindPackTo(blockedTp, resultTp)
	s.unblockPack(blockedTp)
}

// blockOnPendingTypes scans target for Blocked or PendingExpansion leaves and
// blocks c on each. Reports true when nothing blocked, so handlers can write
// `if !s.blockOnPendingTypes(...) { return false }`.
func (s *Solver) blockOnPendingTypes(target TypeId, c *Constraint) bool {
	blockedOnAny := false
	visitType(target, func(ty TypeId) bool {
		switch ty.variant.(type) {
		case *BlockedType, *PendingExpansionType:
			blockedOnAny = true
			s.block(ty, c)
		}
		return true
	}, nil)
	return !blockedOnAny
}

func (s *Solver) blockOnPendingPackTypes(target TypePackId, c *Constraint) bool {
	blockedOnAny := false
	head, tail := Flatten(target)
	for _, ty := range head {
		if !s.blockOnPendingTypes(ty, c) {
			blockedOnAny = true
		}
	}
	if tail != nil {
		switch FollowPack(tail).variant.(type) {
		case *BlockedPack, *FamilyInstancePack:
			blockedOnAny = true
			s.block(tail, c)
		}
	}
	return !blockedOnAny
}

// reportError tags a diagnostic with the current module and accumulates it.
func (s *Solver) reportError(e ilerr.TypeError) {
	s.Errors = s.Errors.With(ilerr.WithModule(ilerr.New(e), s.currentModuleName))
}

func (s *Solver) anyUnsolvedLocation() ast.Range {
	if len(s.store.unsolved) > 0 {
		return s.store.unsolved[0].Location
	}
	return ast.Range{}
}
