package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brambleworks/bramble/internal/core/bt"
	"github.com/brambleworks/bramble/internal/core/physics"
)

type fakeWorld struct {
	order     []EntityID
	behaviors map[EntityID]*Behavior
	moving    map[EntityID]bool
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		behaviors: make(map[EntityID]*Behavior),
		moving:    make(map[EntityID]bool),
	}
}

func (w *fakeWorld) add(id EntityID, b *Behavior) {
	w.order = append(w.order, id)
	w.behaviors[id] = b
}

func (w *fakeWorld) remove(id EntityID) {
	delete(w.behaviors, id)
	delete(w.moving, id)
}

func (w *fakeWorld) EachBehavior(fn func(EntityID, *Behavior) bool) {
	for _, id := range w.order {
		if b, ok := w.behaviors[id]; ok {
			if !fn(id, b) {
				return
			}
		}
	}
}

func (w *fakeWorld) Behavior(id EntityID) (*Behavior, bool) {
	b, ok := w.behaviors[id]
	return b, ok
}

func (w *fakeWorld) Moving(id EntityID) bool { return w.moving[id] }

// recorder collects dispatched actions per entity.
type recorder struct {
	dispatched []bt.ActionType
}

func (r *recorder) handler() ActionHandler {
	return func(_ EntityID, a *bt.Action) {
		r.dispatched = append(r.dispatched, a.Type)
	}
}

func waitTree(seconds float64) *bt.Node {
	return bt.NewSequence("root",
		bt.NewActionNode("wait", bt.Action{Type: bt.ActWait, Seconds: seconds}),
	)
}

func mustBehavior(t *testing.T, root *bt.Node, tick time.Duration) *Behavior {
	t.Helper()
	b, err := New(root, ModeContinuous, tick)
	require.NoError(t, err)
	return b
}

func TestWaitBlocksReevaluationForEightTicks(t *testing.T) {
	world := newFakeWorld()
	world.add("npc", mustBehavior(t, waitTree(2), 250*time.Millisecond))

	rec := &recorder{}
	sys := NewSystem(world, nil, rec.handler())

	// First due tick starts the wait.
	sys.Update(250 * time.Millisecond)
	require.Len(t, rec.dispatched, 1)
	require.True(t, sys.Running("npc"))
	require.Equal(t, "wait", world.behaviors["npc"].RunningNodeID)

	// Seven more ticks: elapsed stays under 2000ms, no re-evaluation.
	for i := 0; i < 7; i++ {
		sys.Update(250 * time.Millisecond)
		require.Len(t, rec.dispatched, 1, "tick %d", i+2)
	}

	// Eighth tick after the start reaches 2000ms: the wait completes and
	// the tree is re-evaluated on the same tick.
	sys.Update(250 * time.Millisecond)
	require.Len(t, rec.dispatched, 2)
	require.Equal(t, "wait", world.behaviors["npc"].RunningNodeID)
}

func TestInstantActionsNeverTrackRunning(t *testing.T) {
	world := newFakeWorld()
	tree := bt.NewSequence("root",
		bt.NewActionNode("greet", bt.Action{Type: bt.ActDialogue, DialogueID: "hello"}),
	)
	world.add("npc", mustBehavior(t, tree, 100*time.Millisecond))

	rec := &recorder{}
	sys := NewSystem(world, nil, rec.handler())

	sys.Update(100 * time.Millisecond)
	require.False(t, sys.Running("npc"))
	require.Empty(t, world.behaviors["npc"].RunningNodeID)

	// Instant actions do not throttle the next decision.
	sys.Update(100 * time.Millisecond)
	require.Len(t, rec.dispatched, 2)
}

func TestMoveToCompletesWhenMovementStops(t *testing.T) {
	world := newFakeWorld()
	tree := bt.NewSequence("root",
		bt.NewActionNode("go", bt.Action{Type: bt.ActMoveTo, Target: &physics.Vec3{X: 5}}),
	)
	world.add("npc", mustBehavior(t, tree, 100*time.Millisecond))

	rec := &recorder{}
	sys := NewSystem(world, nil, rec.handler())

	// The demo-side handler would start pathing; emulate it.
	sys.Update(100 * time.Millisecond)
	world.moving["npc"] = true
	require.Len(t, rec.dispatched, 1)

	for i := 0; i < 5; i++ {
		sys.Update(100 * time.Millisecond)
		require.Len(t, rec.dispatched, 1)
	}

	world.moving["npc"] = false
	sys.Update(100 * time.Millisecond)
	require.Len(t, rec.dispatched, 2)
}

func TestTickThrottlingPerEntity(t *testing.T) {
	world := newFakeWorld()
	fast := bt.NewSequence("fast-root",
		bt.NewActionNode("fa", bt.Action{Type: bt.ActAnimate, Animation: "blink"}),
	)
	slow := bt.NewSequence("slow-root",
		bt.NewActionNode("sa", bt.Action{Type: bt.ActAnimate, Animation: "yawn"}),
	)
	world.add("fast", mustBehavior(t, fast, 100*time.Millisecond))
	world.add("slow", mustBehavior(t, slow, 300*time.Millisecond))

	counts := make(map[EntityID]int)
	sys := NewSystem(world, nil, func(id EntityID, _ *bt.Action) { counts[id]++ })

	for i := 0; i < 6; i++ {
		sys.Update(100 * time.Millisecond)
	}
	require.Equal(t, 6, counts["fast"])
	require.Equal(t, 2, counts["slow"])
}

func TestFailureIsANormalOutcome(t *testing.T) {
	world := newFakeWorld()
	tree := bt.NewSequence("root",
		bt.NewConditionNode("never", bt.Condition{Type: bt.CondCustom, Check: "never"}),
		bt.NewActionNode("a", bt.Action{Type: bt.ActAnimate, Animation: "dance"}),
	)
	world.add("npc", mustBehavior(t, tree, 50*time.Millisecond))

	rec := &recorder{}
	sys := NewSystem(world, func(EntityID, *bt.Condition) bool { return false }, rec.handler())

	for i := 0; i < 10; i++ {
		sys.Update(50 * time.Millisecond)
	}
	require.Empty(t, rec.dispatched)
	require.False(t, sys.Running("npc"))
}

func TestRemoveDropsBookkeepingMidWait(t *testing.T) {
	world := newFakeWorld()
	world.add("npc", mustBehavior(t, waitTree(10), 100*time.Millisecond))

	rec := &recorder{}
	sys := NewSystem(world, nil, rec.handler())

	sys.Update(100 * time.Millisecond)
	require.True(t, sys.Running("npc"))

	world.remove("npc")
	sys.Remove("npc")
	require.False(t, sys.Running("npc"))

	// Later ticks never touch the removed entity's bookkeeping.
	for i := 0; i < 5; i++ {
		sys.Update(100 * time.Millisecond)
	}
	require.Len(t, rec.dispatched, 1)
}

func TestEvaluateForInteraction(t *testing.T) {
	world := newFakeWorld()
	tree := bt.NewSelector("root",
		bt.NewSequence("talk",
			bt.NewConditionNode("met", bt.Condition{Type: bt.CondHasFlag, Flag: "met_player"}),
			bt.NewActionNode("greet-again", bt.Action{Type: bt.ActDialogue, DialogueID: "welcome_back"}),
		),
		bt.NewActionNode("greet", bt.Action{Type: bt.ActDialogue, DialogueID: "first_meeting"}),
	)
	b, err := New(tree, ModeOnInteraction, 0)
	require.NoError(t, err)
	world.add("npc", b)

	met := false
	rec := &recorder{}
	sys := NewSystem(world, func(_ EntityID, c *bt.Condition) bool {
		return c.Type == bt.CondHasFlag && c.Flag == "met_player" && met
	}, rec.handler())

	action := sys.EvaluateForInteraction("npc")
	require.NotNil(t, action)
	require.Equal(t, "first_meeting", action.DialogueID)

	met = true
	action = sys.EvaluateForInteraction("npc")
	require.NotNil(t, action)
	require.Equal(t, "welcome_back", action.DialogueID)

	// One-shot decisions bypass the handler and the running-action table.
	require.Empty(t, rec.dispatched)
	require.False(t, sys.Running("npc"))

	require.Nil(t, sys.EvaluateForInteraction("ghost"))
}

func TestSetTreeResetsRepeatCounters(t *testing.T) {
	first := bt.NewRepeater("rep", 5,
		bt.NewActionNode("a", bt.Action{Type: bt.ActAnimate, Animation: "sweep"}),
	)
	b, err := New(first, ModeContinuous, 100*time.Millisecond)
	require.NoError(t, err)

	// Run one partial repeat so a counter exists.
	bt.Evaluate(b.Root, bt.EvalContext{BB: b.Blackboard})
	require.True(t, b.Blackboard.Has("bt.repeat.rep"))

	second := bt.NewRepeater("rep", 2,
		bt.NewActionNode("a", bt.Action{Type: bt.ActAnimate, Animation: "mop"}),
	)
	require.NoError(t, b.SetTree(second))
	require.False(t, b.Blackboard.Has("bt.repeat.rep"))
}

func TestNewRejectsMalformedTree(t *testing.T) {
	bad := &bt.Node{ID: "x", Kind: bt.KindSelector}
	_, err := New(bad, ModeContinuous, 0)
	require.Error(t, err)
}
