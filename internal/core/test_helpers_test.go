package core

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshspace/meshspace-server/internal/directory"
	"github.com/meshspace/meshspace-server/internal/proto"
)

// stubVerifier maps tokens to user ids directly.
type stubVerifier struct {
	users map[string]string
}

func (v *stubVerifier) VerifyCredential(token string) (string, error) {
	id, ok := v.users[token]
	if !ok {
		return "", errors.New("bad credential")
	}
	return id, nil
}

// spawnAt returns a Spawner that always picks the same cell.
func spawnAt(x, y int) Spawner {
	return func(_, _ int) (int, int) { return x, y }
}

type fixture struct {
	registry *Registry
	verifier *stubVerifier
	spaces   *directory.Static
	log      *zerolog.Logger
}

func newFixture() *fixture {
	logger := zerolog.Nop()
	return &fixture{
		registry: NewRegistry(),
		verifier: &stubVerifier{users: map[string]string{
			"token-a": "alice",
			"token-b": "bob",
			"token-c": "carol",
		}},
		spaces: directory.NewStatic(directory.Space{
			ID: "lobby", Name: "Lobby", Width: 100, Height: 200,
		}),
		log: &logger,
	}
}

func (f *fixture) session(spawn Spawner) *Session {
	return NewSession(f.registry, f.verifier, f.spaces, spawn, f.log)
}

func mustEvent(t *testing.T, ch <-chan *proto.Outbound, msgType string) *proto.Outbound {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case msg := <-ch:
			if msg == nil {
				continue
			}
			if msg.Type == msgType {
				return msg
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected message type %q not received", msgType)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *proto.Outbound) {
	t.Helper()

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
