// Command ws_smoke is a manual smoke client for the relay: it joins a space,
// performs one legal step and one illegal teleport, and prints the traffic.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/meshspace/meshspace-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	space := flag.String("space", "", "space id to join")
	token := flag.String("token", "", "bearer token (see `meshspace-server token`)")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *space == "" || *token == "" {
		return fmt.Errorf("-space and -token are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, payload any) error {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msgType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Payload: raw}); err != nil {
			return fmt.Errorf("send %s: %w", msgType, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoin, proto.JoinPayload{SpaceID: *space, Token: *token}); err != nil {
		return err
	}

	var joined proto.SpaceJoinedPayload
	var envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := wsjson.Read(ctx, conn, &envelope); err != nil {
		return fmt.Errorf("read join confirmation: %w", err)
	}
	if envelope.Type != proto.OutboundTypeSpaceJoined {
		return fmt.Errorf("expected %s, got %s", proto.OutboundTypeSpaceJoined, envelope.Type)
	}
	if err := json.Unmarshal(envelope.Payload, &joined); err != nil {
		return fmt.Errorf("unmarshal space-joined: %w", err)
	}
	fmt.Printf("joined %s at (%d,%d), %d other user(s)\n",
		joined.SpaceID, joined.Spawn.X, joined.Spawn.Y, len(joined.Users))

	// One legal step (no echo expected) and one teleport (rejection expected).
	// Step toward the interior so the move cannot leave the space.
	stepX := joined.Spawn.X + 1
	if joined.Spawn.X > 0 {
		stepX = joined.Spawn.X - 1
	}
	if err := send(proto.InboundTypeMove, proto.MovePayload{X: stepX, Y: joined.Spawn.Y}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeMove, proto.MovePayload{X: joined.Spawn.X + 10, Y: joined.Spawn.Y}); err != nil {
		return err
	}

	for {
		if err := wsjson.Read(ctx, conn, &envelope); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("received: type=%s payload=%s\n", envelope.Type, string(envelope.Payload))

		if envelope.Type == proto.OutboundTypeMovementRejected {
			return nil
		}
	}
}
