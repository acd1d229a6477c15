package bt

import "fmt"

// ConditionType tags a condition variant.
type ConditionType string

const (
	CondHasFlag    ConditionType = "hasFlag"
	CondHasItem    ConditionType = "hasItem"
	CondQuestStage ConditionType = "questStage"
	CondTimeOfDay  ConditionType = "timeOfDay"
	CondAtLocation ConditionType = "atLocation"
	CondCustom     ConditionType = "custom"
)

// Condition is the payload of a condition leaf. The engine never evaluates
// these itself; they are handed to the game-supplied condition callback.
// Only the fields of the tagged variant are set.
type Condition struct {
	Type ConditionType `json:"type" yaml:"type"`

	// hasFlag: Value nil means "flag is set", otherwise it must match.
	Flag  string `json:"flag,omitempty" yaml:"flag,omitempty"`
	Value *bool  `json:"value,omitempty" yaml:"value,omitempty"`

	// hasItem: Count zero means at least one.
	ItemID string `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	Count  int    `json:"count,omitempty" yaml:"count,omitempty"`

	// questStage
	QuestID string `json:"questId,omitempty" yaml:"questId,omitempty"`
	StageID string `json:"stageId,omitempty" yaml:"stageId,omitempty"`
	NodeID  string `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`

	// timeOfDay
	TimeOfDay string `json:"timeOfDay,omitempty" yaml:"timeOfDay,omitempty"`

	// atLocation: Radius zero leaves the tolerance to the game layer.
	LocationID string  `json:"locationId,omitempty" yaml:"locationId,omitempty"`
	Radius     float64 `json:"radius,omitempty" yaml:"radius,omitempty"`

	// custom: name of a game-registered check.
	Check string `json:"check,omitempty" yaml:"check,omitempty"`
}

func (c *Condition) validate() error {
	switch c.Type {
	case CondHasFlag:
		if c.Flag == "" {
			return fmt.Errorf("hasFlag requires flag")
		}
	case CondHasItem:
		if c.ItemID == "" {
			return fmt.Errorf("hasItem requires itemId")
		}
		if c.Count < 0 {
			return fmt.Errorf("hasItem count must not be negative")
		}
	case CondQuestStage:
		if c.QuestID == "" || c.StageID == "" {
			return fmt.Errorf("questStage requires questId and stageId")
		}
		if c.State == "" {
			return fmt.Errorf("questStage requires state")
		}
	case CondTimeOfDay:
		if c.TimeOfDay == "" {
			return fmt.Errorf("timeOfDay requires a value")
		}
	case CondAtLocation:
		if c.LocationID == "" {
			return fmt.Errorf("atLocation requires locationId")
		}
		if c.Radius < 0 {
			return fmt.Errorf("atLocation radius must not be negative")
		}
	case CondCustom:
		if c.Check == "" {
			return fmt.Errorf("custom condition requires check")
		}
	default:
		return fmt.Errorf("unknown condition type %q", c.Type)
	}
	return nil
}
