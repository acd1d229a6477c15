package behavior

// EntityID identifies one entity in the game's component store.
type EntityID string

// World is the entity/component boundary the scheduler reads through. It
// is implemented by the game's store; the scheduler never owns entity
// state and never mutates it beyond the Behavior component it is handed.
type World interface {
	// EachBehavior visits every entity carrying a Behavior component.
	// Returning false from fn stops the iteration.
	EachBehavior(fn func(id EntityID, b *Behavior) bool)

	// Behavior looks up the component for a single entity.
	Behavior(id EntityID) (*Behavior, bool)

	// Moving reports whether the entity still has an outstanding scripted
	// movement target. Drives moveTo completion.
	Moving(id EntityID) bool
}
