package behavior

import (
	"time"

	"go.uber.org/zap"

	"github.com/brambleworks/bramble/internal/core/bt"
)

// CheckFunc is the game-supplied condition callback. It is treated as
// opaque and called synchronously once per condition-node visit.
type CheckFunc func(id EntityID, c *bt.Condition) bool

// ActionHandler receives every started action exactly once. It must not
// block; long work belongs to the game's own systems.
type ActionHandler func(id EntityID, a *bt.Action)

// runningAction tracks one asynchronous action in flight. Scheduler
// private, never persisted.
type runningAction struct {
	action  *bt.Action
	nodeID  string
	elapsed time.Duration
	warned  bool
}

// System drives behavior trees. One-shot decisions go through
// EvaluateForInteraction; continuous entities are ticked from Update.
// Everything runs synchronously on the caller's goroutine, so many
// thousands of entities can be ticked per frame without per-entity stacks.
type System struct {
	log    *zap.Logger
	world  World
	check  CheckFunc
	handle ActionHandler

	timers  map[EntityID]time.Duration
	running map[EntityID]*runningAction

	// stallWarnAfter emits a single warning for a running action older
	// than this. Diagnostics only; the action is never auto-cancelled.
	stallWarnAfter time.Duration
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *System) { s.log = l }
}

// WithStallWarning enables a warning when a running action's elapsed time
// exceeds d without completing.
func WithStallWarning(d time.Duration) Option {
	return func(s *System) { s.stallWarnAfter = d }
}

// NewSystem wires the scheduler to its collaborators. Both callbacks are
// injected here; there is no ambient registration.
func NewSystem(world World, check CheckFunc, handle ActionHandler, opts ...Option) *System {
	s := &System{
		log:     zap.NewNop(),
		world:   world,
		check:   check,
		handle:  handle,
		timers:  make(map[EntityID]time.Duration),
		running: make(map[EntityID]*runningAction),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateForInteraction makes a one-shot decision for an entity and
// returns the chosen action, or nil when the tree failed or chose nothing.
// Running-action bookkeeping is untouched; dispatching the action is the
// caller's business.
func (s *System) EvaluateForInteraction(id EntityID) *bt.Action {
	b, ok := s.world.Behavior(id)
	if !ok || b.Root == nil {
		return nil
	}
	res := bt.Evaluate(b.Root, s.evalContext(id, b))
	if res.Status != bt.StatusSuccess {
		return nil
	}
	return res.Action
}

// Update advances every continuous-mode entity by dt. Per entity: throttle
// to the tick interval, service a running action first, and only when none
// is left re-evaluate the tree and dispatch its decision.
func (s *System) Update(dt time.Duration) {
	s.world.EachBehavior(func(id EntityID, b *Behavior) bool {
		if b == nil || b.Mode != ModeContinuous || b.Root == nil {
			return true
		}
		interval := b.Interval()
		s.timers[id] += dt
		if s.timers[id] < interval {
			return true
		}
		s.timers[id] = 0

		if ra := s.running[id]; ra != nil {
			ra.elapsed += interval
			if !s.completed(id, ra) {
				s.warnIfStalled(id, ra)
				return true
			}
			delete(s.running, id)
			b.RunningNodeID = ""
		}

		res := bt.Evaluate(b.Root, s.evalContext(id, b))
		if res.Status != bt.StatusSuccess || res.Action == nil {
			// Deciding nothing this cycle is a normal outcome.
			return true
		}
		s.start(id, b, res)
		return true
	})
}

// Remove drops all bookkeeping for an entity. Must be called when the
// entity leaves the store so a stale running action never references it.
func (s *System) Remove(id EntityID) {
	delete(s.timers, id)
	delete(s.running, id)
}

// Running reports whether the entity currently has an action in flight.
func (s *System) Running(id EntityID) bool {
	_, ok := s.running[id]
	return ok
}

func (s *System) evalContext(id EntityID, b *Behavior) bt.EvalContext {
	if b.Blackboard == nil {
		b.Blackboard = bt.NewBlackboard()
	}
	return bt.EvalContext{
		Check: func(c *bt.Condition) bool {
			if s.check == nil {
				return false
			}
			return s.check(id, c)
		},
		BB: b.Blackboard,
	}
}

// start dispatches the action to the handler exactly once and, for async
// actions, records it so the tree is not re-evaluated until it completes.
func (s *System) start(id EntityID, b *Behavior, res bt.Result) {
	if s.handle != nil {
		s.handle(id, res.Action)
	}
	if !res.Action.Async() {
		return
	}
	s.running[id] = &runningAction{action: res.Action, nodeID: res.ActionNodeID}
	b.RunningNodeID = res.ActionNodeID
	s.log.Debug("action started",
		zap.String("entity", string(id)),
		zap.String("node", res.ActionNodeID),
		zap.String("action", string(res.Action.Type)))
}

func (s *System) completed(id EntityID, ra *runningAction) bool {
	switch ra.action.Type {
	case bt.ActWait:
		return ra.elapsed >= time.Duration(ra.action.Seconds*float64(time.Second))
	case bt.ActMoveTo:
		// The movement collaborator owns completion. A moveTo nobody
		// services blocks re-evaluation indefinitely; that is accepted
		// scheduler behavior, surfaced only through the stall warning.
		return !s.world.Moving(id)
	}
	return true
}

func (s *System) warnIfStalled(id EntityID, ra *runningAction) {
	if s.stallWarnAfter <= 0 || ra.warned || ra.elapsed < s.stallWarnAfter {
		return
	}
	ra.warned = true
	s.log.Warn("running action exceeded stall threshold",
		zap.String("entity", string(id)),
		zap.String("node", ra.nodeID),
		zap.String("action", string(ra.action.Type)),
		zap.Duration("elapsed", ra.elapsed))
}
