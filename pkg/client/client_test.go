package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/require"

	"designforge/internal/ws"
	"designforge/pkg/client"
	"designforge/pkg/design"
	"designforge/pkg/wire"
)

// Drives a real client against a live hub: the transport is killed
// server-side, an edit made while down stays local, and the client
// rejoins by itself with a fresh session and a snapshot-reset replica.
func TestClientReconnectRejoinsFresh(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	var dropped atomic.Bool
	c := client.New(url, "r1", wire.UserInfo{ID: "u1", Name: "alice"},
		client.WithRetryDelay(300*time.Millisecond),
		client.WithStatusHandler(func(connected bool) {
			if !connected {
				dropped.Store(true)
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	require.Eventually(t, func() bool { return c.SessionID() != "" }, 2*time.Second, 5*time.Millisecond)
	first := c.SessionID()

	c.AddLayer(design.Layer{ID: "L1", Type: design.LayerRectangle, Width: 10, Height: 10, Visible: true})
	require.Eventually(t, func() bool {
		room, ok := hub.Rooms().Get("r1")
		if !ok {
			return false
		}
		_, layers := room.Snapshot()
		return len(layers) == 1
	}, 2*time.Second, 5*time.Millisecond, "the online edit reaches the server")

	// Kill the transport out from under the client.
	srv.CloseClientConnections()
	require.Eventually(t, func() bool { return dropped.Load() }, 2*time.Second, 5*time.Millisecond)

	// An edit made while down stays in the local replica only.
	c.AddLayer(design.Layer{ID: "offline", Type: design.LayerRectangle, Visible: true})

	// The retry loop re-runs the join from scratch: new session id, and
	// the replica resets to the rejoin snapshot. The old room was
	// reaped when its last member dropped, so that snapshot is empty.
	require.Eventually(t, func() bool {
		sid := c.SessionID()
		return sid != "" && sid != first
	}, 5*time.Second, 10*time.Millisecond, "client rejoins with a fresh session")

	require.Eventually(t, func() bool {
		return len(c.Replica().Layers()) == 0
	}, 2*time.Second, 5*time.Millisecond, "replica resets, dropping the offline edit")

	room, ok := hub.Rooms().Get("r1")
	require.True(t, ok)
	_, layers := room.Snapshot()
	require.Empty(t, layers, "the offline edit never reaches the server")
}
