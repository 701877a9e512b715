package client_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"designforge/pkg/client"
	"designforge/pkg/design"
	"designforge/pkg/wire"
)

func env(t *testing.T, typ wire.MsgType, v any) wire.Envelope {
	t.Helper()
	e, err := wire.NewEnvelope(typ, v)
	require.NoError(t, err)
	return e
}

func TestReplicaResetAndPaintOrder(t *testing.T) {
	t.Parallel()

	r := client.NewReplica()
	r.Reset(
		[]wire.Session{{SessionID: "s1", Name: "alice"}},
		[]design.Layer{
			{ID: "top", ZIndex: 5},
			{ID: "bottom", ZIndex: 0},
			{ID: "mid", ZIndex: 2},
		},
	)

	layers := r.Layers()
	require.Equal(t, []string{"bottom", "mid", "top"}, []string{layers[0].ID, layers[1].ID, layers[2].ID},
		"paint order comes from z-index, not arrival order")
	require.Len(t, r.Users(), 1)
}

func TestReplicaEchoDiscard(t *testing.T) {
	t.Parallel()

	r := client.NewReplica()
	r.Reset(nil, nil)

	// Optimistic local add, then the (hypothetical) echo of it.
	r.AddLayer(design.Layer{ID: "L1"})
	applied := r.Apply(env(t, wire.MsgLayerAdded, wire.LayerAddedData{
		Layer: design.Layer{ID: "L1"}, AddedBy: "me",
	}), "me")
	require.False(t, applied, "own echo must be discarded")
	require.Len(t, r.Layers(), 1, "echo must not double-apply")

	// The same event from a different origin applies.
	applied = r.Apply(env(t, wire.MsgLayerAdded, wire.LayerAddedData{
		Layer: design.Layer{ID: "L2"}, AddedBy: "peer",
	}), "me")
	require.True(t, applied)
	require.Len(t, r.Layers(), 2)
}

func TestReplicaRemoteMergeSemantics(t *testing.T) {
	t.Parallel()

	r := client.NewReplica()
	r.Reset(nil, []design.Layer{{ID: "L1", X: 1, Y: 2, Width: 10, Text: "hi"}})

	ok := r.Apply(env(t, wire.MsgLayerUpdated, wire.LayerUpdatedData{
		Layer:     json.RawMessage(`{"id":"L1","x":50}`),
		UpdatedBy: "peer",
	}), "me")
	require.True(t, ok)

	l, found := r.Layer("L1")
	require.True(t, found)
	require.Equal(t, 50.0, l.X)
	require.Equal(t, 2.0, l.Y, "fields absent from the patch survive")
	require.Equal(t, "hi", l.Text)

	// Delete for an unknown id is harmless.
	ok = r.Apply(env(t, wire.MsgLayerDeleted, wire.LayerDeletedData{
		LayerID: "ghost", DeletedBy: "peer",
	}), "me")
	require.True(t, ok)
	require.Len(t, r.Layers(), 1)

	ok = r.Apply(env(t, wire.MsgLayerDeleted, wire.LayerDeletedData{
		LayerID: "L1", DeletedBy: "peer",
	}), "me")
	require.True(t, ok)
	require.Empty(t, r.Layers())
}

func TestReplicaPresence(t *testing.T) {
	t.Parallel()

	r := client.NewReplica()
	r.Reset([]wire.Session{{SessionID: "me", Name: "alice"}}, nil)

	r.Apply(env(t, wire.MsgUserJoined, wire.Session{SessionID: "peer", Name: "bob", Color: "#4ecdc4"}), "me")
	require.Len(t, r.Users(), 2)

	r.Apply(env(t, wire.MsgCursorUpdate, wire.CursorUpdateData{
		SessionID: "peer", Cursor: design.Cursor{X: 3, Y: 4},
	}), "me")
	for _, u := range r.Users() {
		if u.SessionID == "peer" {
			require.NotNil(t, u.Cursor)
			require.Equal(t, design.Cursor{X: 3, Y: 4}, *u.Cursor)
		}
	}

	r.Apply(env(t, wire.MsgUserLeft, wire.UserLeftData{SessionID: "peer"}), "me")
	require.Len(t, r.Users(), 1)

	// Unknown event types are not applied.
	require.False(t, r.Apply(wire.Envelope{Type: "telepathy", Data: json.RawMessage(`{}`)}, "me"))
}
