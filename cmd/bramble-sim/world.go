package main

import (
	"strings"
	"sync"

	"github.com/brambleworks/bramble/internal/core/behavior"
	"github.com/brambleworks/bramble/internal/core/bt"
	"github.com/brambleworks/bramble/internal/core/physics"
)

// npcState is the demo's entity: a position, an optional scripted movement
// target, and the behavior component the scheduler reads.
type npcState struct {
	behavior   *behavior.Behavior
	pos        physics.Vec3
	target     *physics.Vec3
	lastAction string
}

// village is a toy entity store implementing behavior.World. A real game
// would back this with its component storage.
type village struct {
	mu        sync.RWMutex
	order     []behavior.EntityID
	npcs      map[behavior.EntityID]*npcState
	flags     map[string]bool
	items     map[string]int
	locations map[string]physics.Vec3

	// clock runs a full in-game day per realtime minute.
	clock float64
}

func newVillage() *village {
	return &village{
		npcs:  make(map[behavior.EntityID]*npcState),
		flags: make(map[string]bool),
		items: make(map[string]int),
		locations: map[string]physics.Vec3{
			"well":   {X: 0, Y: 0, Z: 0},
			"market": {X: 12, Y: 0, Z: 4},
			"tavern": {X: -6, Y: 0, Z: 9},
		},
	}
}

func (v *village) addNPC(id behavior.EntityID, b *behavior.Behavior, pos physics.Vec3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.order = append(v.order, id)
	v.npcs[id] = &npcState{behavior: b, pos: pos}
}

// EachBehavior iterates over a snapshot so condition callbacks and action
// handlers invoked under fn can take the world lock themselves.
func (v *village) EachBehavior(fn func(behavior.EntityID, *behavior.Behavior) bool) {
	v.mu.RLock()
	ids := make([]behavior.EntityID, len(v.order))
	copy(ids, v.order)
	v.mu.RUnlock()
	for _, id := range ids {
		v.mu.RLock()
		n, ok := v.npcs[id]
		v.mu.RUnlock()
		if !ok {
			continue
		}
		if !fn(id, n.behavior) {
			return
		}
	}
}

func (v *village) Behavior(id behavior.EntityID) (*behavior.Behavior, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, ok := v.npcs[id]
	if !ok {
		return nil, false
	}
	return n.behavior, true
}

func (v *village) Moving(id behavior.EntityID) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, ok := v.npcs[id]
	return ok && n.target != nil
}

const walkSpeed = 2.5 // units per second

// step advances movement and the day clock by dt seconds.
func (v *village) step(dt float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clock += dt / 60
	if v.clock >= 1 {
		v.clock -= 1
	}
	for _, n := range v.npcs {
		if n.target == nil {
			continue
		}
		to := n.target.Sub(n.pos)
		maxStep := walkSpeed * dt
		if to.Len() <= maxStep {
			n.pos = *n.target
			n.target = nil
			continue
		}
		n.pos = n.pos.Add(to.Normalized().Scale(maxStep))
	}
}

func (v *village) timeOfDay() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.clock < 0.5 {
		return "day"
	}
	return "night"
}

func (v *village) setTarget(id behavior.EntityID, t physics.Vec3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n, ok := v.npcs[id]; ok {
		n.target = &t
	}
}

func (v *village) setLastAction(id behavior.EntityID, desc string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n, ok := v.npcs[id]; ok {
		n.lastAction = desc
	}
}

func flagKey(id behavior.EntityID, flag string) string {
	return string(id) + "/" + flag
}

// check implements the condition callback over village state.
func (v *village) check(id behavior.EntityID, c *bt.Condition) bool {
	switch c.Type {
	case bt.CondHasFlag:
		v.mu.RLock()
		set, ok := v.flags[flagKey(id, c.Flag)]
		v.mu.RUnlock()
		if c.Value != nil {
			return ok && set == *c.Value
		}
		return ok && set
	case bt.CondHasItem:
		v.mu.RLock()
		n := v.items[string(id)+"/"+c.ItemID]
		v.mu.RUnlock()
		want := c.Count
		if want == 0 {
			want = 1
		}
		return n >= want
	case bt.CondTimeOfDay:
		return strings.EqualFold(v.timeOfDay(), c.TimeOfDay)
	case bt.CondAtLocation:
		v.mu.RLock()
		n, ok := v.npcs[id]
		loc, lok := v.locations[c.LocationID]
		v.mu.RUnlock()
		if !ok || !lok {
			return false
		}
		radius := c.Radius
		if radius == 0 {
			radius = 1.5
		}
		return physics.Distance(n.pos, loc) <= radius
	case bt.CondQuestStage:
		// The toy village has no quest log.
		return false
	case bt.CondCustom:
		switch c.Check {
		case "is_idle":
			return !v.Moving(id)
		}
		return false
	}
	return false
}
