package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/meshspace/meshspace-server/internal/auth"
	"github.com/meshspace/meshspace-server/internal/config"
	"github.com/meshspace/meshspace-server/internal/core"
	"github.com/meshspace/meshspace-server/internal/directory"
	"github.com/meshspace/meshspace-server/internal/proto"
)

const testSecret = "test-secret"

type testEnv struct {
	ts       *httptest.Server
	registry *core.Registry
	jwtCfg   *auth.JWTConfig
}

// startTestServer builds a relay over a static directory with an injected
// spawner and a real JWT verifier.
func startTestServer(t *testing.T, spawn core.Spawner) *testEnv {
	t.Helper()

	jwtCfg := &auth.JWTConfig{
		Secret: []byte(testSecret),
		TTL:    time.Hour,
	}

	registry := core.NewRegistry()
	spaces := directory.NewStatic(directory.Space{
		ID: "lobby", Name: "Lobby", Width: 100, Height: 200,
	})

	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		MaxMessageBytes:   1 << 20,
		JWTSecret:         testSecret,
	}

	disabledLogger := zerolog.Nop()
	server := NewServer(registry, auth.NewVerifier(jwtCfg), spaces, spawn, &cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, registry: registry, jwtCfg: jwtCfg}
}

func (e *testEnv) wsURL() string {
	return strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()

	token, err := auth.GenerateToken(e.jwtCfg, userID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// spawnSeq hands out the given points in order, cycling when exhausted.
func spawnSeq(points ...[2]int) core.Spawner {
	var mu sync.Mutex
	i := 0
	return func(_, _ int) (int, int) {
		mu.Lock()
		defer mu.Unlock()
		p := points[i%len(points)]
		i++
		return p[0], p[1]
	}
}

// outbound mirrors proto.Outbound with a raw payload for decoding.
type outbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func sendFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, wantType string) json.RawMessage {
	t.Helper()

	var msg outbound
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read frame (want %s): %v", wantType, err)
	}
	if msg.Type != wantType {
		t.Fatalf("expected frame type %q, got %q", wantType, msg.Type)
	}
	return msg.Payload
}

func joinConn(t *testing.T, ctx context.Context, env *testEnv, userID string, spaceID string) (*websocket.Conn, proto.SpaceJoinedPayload) {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, env.wsURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	sendFrame(t, ctx, conn, proto.InboundTypeJoin, proto.JoinPayload{
		SpaceID: spaceID,
		Token:   env.token(t, userID),
	})

	var joined proto.SpaceJoinedPayload
	raw := readFrame(t, ctx, conn, proto.OutboundTypeSpaceJoined)
	if err := json.Unmarshal(raw, &joined); err != nil {
		t.Fatalf("unmarshal space-joined: %v", err)
	}
	return conn, joined
}
