package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t, nil)

	resp, err := env.ts.Client().Get(env.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestOccupantsEndpoint(t *testing.T) {
	env := startTestServer(t, spawnSeq([2]int{5, 5}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	joinConn(t, ctx, env, "alice", "lobby")

	resp, err := env.ts.Client().Get(env.ts.URL + "/api/spaces/lobby/occupants")
	if err != nil {
		t.Fatalf("occupants request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var body OccupantsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.SpaceID != "lobby" {
		t.Fatalf("unexpected space id: %s", body.SpaceID)
	}
	if len(body.Occupants) != 1 || body.Occupants[0] != "alice" {
		t.Fatalf("expected [alice], got %v", body.Occupants)
	}
}

func TestOccupantsUnknownSpace(t *testing.T) {
	env := startTestServer(t, nil)

	resp, err := env.ts.Client().Get(env.ts.URL + "/api/spaces/atlantis/occupants")
	if err != nil {
		t.Fatalf("occupants request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
