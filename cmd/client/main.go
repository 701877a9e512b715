// Command client joins a collaboration room and logs room activity.
// Useful for poking at a running server:
//
//	go run ./cmd/client -addr ws://localhost:8080/ws -room demo -name alice
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/google/uuid"

	"designforge/pkg/client"
	"designforge/pkg/design"
	"designforge/pkg/wire"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "websocket endpoint")
	room := flag.String("room", "demo", "room id to join")
	name := flag.String("name", "anonymous", "display name")
	draw := flag.Bool("draw", false, "add a demo rectangle after joining")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var c *client.Client
	c = client.New(*addr, *room, wire.UserInfo{ID: uuid.New().String(), Name: *name},
		client.WithLogger(logger),
		client.WithStatusHandler(func(connected bool) {
			if !connected {
				logger.Warn("status.disconnected")
				return
			}
			logger.Info("status.connected", "session", c.SessionID())
			if *draw {
				c.AddLayer(design.Layer{
					ID:      uuid.New().String(),
					Type:    design.LayerRectangle,
					Name:    "Rectangle",
					X:       100,
					Y:       100,
					Width:   100,
					Height:  100,
					Fill:    "#4ecdc4",
					Visible: true,
					ZIndex:  len(c.Replica().Layers()),
				})
			}
		}),
		client.WithEventHandler(func(env wire.Envelope) {
			raw, _ := json.Marshal(env)
			logger.Info("room.event", "msg", string(raw))
		}),
	)

	c.Run(ctx)
}
