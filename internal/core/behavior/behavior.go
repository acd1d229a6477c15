package behavior

import (
	"fmt"
	"time"

	"github.com/brambleworks/bramble/internal/core/bt"
)

// Mode selects how an entity's tree is driven.
type Mode string

const (
	// ModeOnInteraction evaluates only when the game asks for a one-shot
	// decision, e.g. a player talking to the NPC.
	ModeOnInteraction Mode = "onInteraction"
	// ModeContinuous evaluates on a fixed per-entity tick cadence.
	ModeContinuous Mode = "continuous"
)

// DefaultTickInterval is used when a continuous behavior does not set one.
const DefaultTickInterval = 250 * time.Millisecond

// Behavior is the per-entity component the scheduler reads. It lives and
// dies with its owning entity in the game's component store.
type Behavior struct {
	Root         *bt.Node
	Mode         Mode
	TickInterval time.Duration
	Blackboard   *bt.Blackboard

	// RunningNodeID marks the action leaf currently in flight, empty when
	// the entity has no running action.
	RunningNodeID string

	digest uint64
}

// New creates a behavior component around a validated tree. A nil root is
// allowed; the entity simply decides nothing until a tree is set.
func New(root *bt.Node, mode Mode, tick time.Duration) (*Behavior, error) {
	b := &Behavior{
		Mode:         mode,
		TickInterval: tick,
		Blackboard:   bt.NewBlackboard(),
	}
	if root != nil {
		if err := b.SetTree(root); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// SetTree validates and installs a new root. Replacing the tree drops the
// repeater counters of the old one so they cannot leak across trees.
func (b *Behavior) SetTree(root *bt.Node) error {
	if root == nil {
		b.Root = nil
		b.digest = 0
		bt.ResetCounters(b.Blackboard)
		return nil
	}
	if err := root.Validate(); err != nil {
		return fmt.Errorf("behavior: %w", err)
	}
	d := root.Digest()
	if b.Root != nil && d != b.digest {
		bt.ResetCounters(b.Blackboard)
	}
	b.Root = root
	b.digest = d
	return nil
}

// Interval returns the effective tick interval.
func (b *Behavior) Interval() time.Duration {
	if b.TickInterval > 0 {
		return b.TickInterval
	}
	return DefaultTickInterval
}
