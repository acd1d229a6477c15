package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()

	var got []Event
	cancel := b.Subscribe("npc.waved", func(ev Event) { got = append(got, ev) })

	b.Publish(NewEvent("npc.waved", "npc-1", map[string]any{"at": "market"}))
	b.Publish(NewEvent("npc.slept", "npc-1", nil))

	require.Len(t, got, 1)
	require.Equal(t, "npc.waved", got[0].Type)
	require.Equal(t, "npc-1", got[0].Source)
	require.NotEmpty(t, got[0].ID)

	cancel()
	b.Publish(NewEvent("npc.waved", "npc-2", nil))
	require.Len(t, got, 1)
}

func TestWildcardSubscription(t *testing.T) {
	b := New()

	count := 0
	b.Subscribe("", func(Event) { count++ })

	b.Publish(NewEvent("a", "s", nil))
	b.Publish(NewEvent("b", "s", nil))
	require.Equal(t, 2, count)
}
