package bt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brambleworks/bramble/internal/core/physics"
)

// fullTree has one node of every kind, exercising every payload field.
func fullTree() *Node {
	yes := true
	return NewSelector("root",
		NewSequence("seq",
			NewConditionNode("c-flag", Condition{Type: CondHasFlag, Flag: "met_player", Value: &yes}),
			NewConditionNode("c-item", Condition{Type: CondHasItem, ItemID: "torch", Count: 2}),
			NewActionNode("a-dialogue", Action{Type: ActDialogue, DialogueID: "greet"}),
		),
		NewParallel("par", PolicyRequireOne,
			NewConditionNode("c-quest", Condition{Type: CondQuestStage, QuestID: "q1", StageID: "s2", NodeID: "n3", State: "active"}),
			NewConditionNode("c-time", Condition{Type: CondTimeOfDay, TimeOfDay: "night"}),
		),
		NewInverter("inv",
			NewConditionNode("c-loc", Condition{Type: CondAtLocation, LocationID: "market", Radius: 3.5}),
		),
		NewSucceeder("suc",
			NewActionNode("a-move", Action{Type: ActMoveTo, Target: &physics.Vec3{X: 1, Y: 2, Z: 3}}),
		),
		NewUntilFail("until",
			NewConditionNode("c-custom", Condition{Type: CondCustom, Check: "is_bored"}),
		),
		NewRepeater("rep", 4,
			NewActionNode("a-wait", Action{Type: ActWait, Seconds: 2}),
		),
	)
}

func TestRoundTripJSON(t *testing.T) {
	tree := fullTree()
	require.NoError(t, tree.Validate())

	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, tree))

	decoded, err := DecodeJSON(&buf)
	require.NoError(t, err)
	require.Equal(t, tree, decoded)
	require.Equal(t, tree.Digest(), decoded.Digest())
}

func TestDecodeYAML(t *testing.T) {
	src := `
id: root
type: sequence
children:
  - id: c1
    type: condition
    condition:
      type: hasFlag
      flag: met_player
  - id: a1
    type: action
    action:
      type: wait
      seconds: 1.5
`
	tree, err := DecodeYAML(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, KindSequence, tree.Kind)
	require.Len(t, tree.Children, 2)
	require.Equal(t, CondHasFlag, tree.Children[0].Condition.Type)
	require.Equal(t, 1.5, tree.Children[1].Action.Seconds)
}

func TestDecodeRejectsMalformedTrees(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unknown node type", `{"id":"x","type":"carousel"}`},
		{"selector without children", `{"id":"x","type":"selector"}`},
		{"decorator without child", `{"id":"x","type":"inverter"}`},
		{"condition without payload", `{"id":"x","type":"condition"}`},
		{"action without payload", `{"id":"x","type":"action"}`},
		{"unknown condition tag", `{"id":"x","type":"condition","condition":{"type":"weather"}}`},
		{"wait without seconds", `{"id":"x","type":"action","action":{"type":"wait"}}`},
		{"missing id", `{"type":"action","action":{"type":"animate","animation":"sit"}}`},
		{"bad parallel policy", `{"id":"x","type":"parallel","policy":"majority","children":[{"id":"y","type":"action","action":{"type":"animate","animation":"sit"}}]}`},
		{"duplicate ids", `{"id":"x","type":"sequence","children":[{"id":"x","type":"action","action":{"type":"animate","animation":"sit"}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tc.src))
			require.Error(t, err)
		})
	}
}

func TestDigestChangesWithContent(t *testing.T) {
	a := NewSequence("root", NewActionNode("a", Action{Type: ActAnimate, Animation: "sit"}))
	b := NewSequence("root", NewActionNode("a", Action{Type: ActAnimate, Animation: "stand"}))
	require.NotEqual(t, a.Digest(), b.Digest())
	require.Equal(t, a.Digest(), a.Digest())
}
