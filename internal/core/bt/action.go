package bt

import (
	"fmt"

	"github.com/brambleworks/bramble/internal/core/physics"
)

// ActionType tags an action variant.
type ActionType string

const (
	ActDialogue  ActionType = "dialogue"
	ActMoveTo    ActionType = "moveTo"
	ActWait      ActionType = "wait"
	ActAnimate   ActionType = "animate"
	ActLookAt    ActionType = "lookAt"
	ActSetFlag   ActionType = "setFlag"
	ActEmitEvent ActionType = "emitEvent"
	ActCustom    ActionType = "custom"
)

// Action is the payload of an action leaf. The evaluator only selects
// actions; execution belongs to the game-supplied action handler. Only the
// fields of the tagged variant are set.
type Action struct {
	Type ActionType `json:"type" yaml:"type"`

	// dialogue
	DialogueID string `json:"dialogueId,omitempty" yaml:"dialogueId,omitempty"`

	// moveTo
	Target *physics.Vec3 `json:"target,omitempty" yaml:"target,omitempty"`

	// wait
	Seconds float64 `json:"seconds,omitempty" yaml:"seconds,omitempty"`

	// animate
	Animation string `json:"animation,omitempty" yaml:"animation,omitempty"`

	// lookAt: an entity or marker identifier resolved by the game layer.
	TargetID string `json:"targetId,omitempty" yaml:"targetId,omitempty"`

	// setFlag
	Flag  string `json:"flag,omitempty" yaml:"flag,omitempty"`
	Value bool   `json:"value,omitempty" yaml:"value,omitempty"`

	// emitEvent
	Event string `json:"event,omitempty" yaml:"event,omitempty"`

	// custom: name of a game-registered handler.
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`
}

// Async reports whether the action completes over multiple ticks. Async
// actions get a running-action record in the scheduler; every other action
// is complete the moment it is dispatched.
func (a *Action) Async() bool {
	switch a.Type {
	case ActWait, ActMoveTo:
		return true
	}
	return false
}

func (a *Action) validate() error {
	switch a.Type {
	case ActDialogue:
		if a.DialogueID == "" {
			return fmt.Errorf("dialogue requires dialogueId")
		}
	case ActMoveTo:
		if a.Target == nil {
			return fmt.Errorf("moveTo requires target")
		}
	case ActWait:
		if a.Seconds <= 0 {
			return fmt.Errorf("wait requires positive seconds")
		}
	case ActAnimate:
		if a.Animation == "" {
			return fmt.Errorf("animate requires animation")
		}
	case ActLookAt:
		if a.TargetID == "" {
			return fmt.Errorf("lookAt requires targetId")
		}
	case ActSetFlag:
		if a.Flag == "" {
			return fmt.Errorf("setFlag requires flag")
		}
	case ActEmitEvent:
		if a.Event == "" {
			return fmt.Errorf("emitEvent requires event")
		}
	case ActCustom:
		if a.Handler == "" {
			return fmt.Errorf("custom action requires handler")
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}
