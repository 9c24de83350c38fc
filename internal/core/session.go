package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meshspace/meshspace-server/internal/directory"
	"github.com/meshspace/meshspace-server/internal/proto"
)

// CredentialVerifier recovers a user identity from a bearer credential.
type CredentialVerifier interface {
	VerifyCredential(token string) (string, error)
}

// Spawner picks initial coordinates inside [0,width) x [0,height).
// Injected so tests can pin spawn positions.
type Spawner func(width, height int) (x, y int)

// RandomSpawn is the production Spawner.
func RandomSpawn(width, height int) (int, int) {
	return rand.IntN(width), rand.IntN(height)
}

type sessionState int

const (
	stateUnjoined sessionState = iota
	stateJoined
	stateClosed
)

// Session is the server-side state of one live connection. Its fields are
// only mutated from the connection's read goroutine; peers interact with it
// exclusively through the registry and the events channel.
type Session struct {
	id string

	state   sessionState
	userID  string
	spaceID string
	x, y    int
	width   int
	height  int

	registry *Registry
	verifier CredentialVerifier
	spaces   directory.Directory
	spawn    Spawner
	log      *zerolog.Logger

	events chan *proto.Outbound
}

// NewSession constructs an unjoined session.
func NewSession(registry *Registry, verifier CredentialVerifier, spaces directory.Directory, spawn Spawner, logger *zerolog.Logger) *Session {
	if spawn == nil {
		spawn = RandomSpawn
	}
	return &Session{
		id:       uuid.NewString(),
		registry: registry,
		verifier: verifier,
		spaces:   spaces,
		spawn:    spawn,
		log:      logger,
		events:   make(chan *proto.Outbound, 16),
	}
}

// ID returns the process-local session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the identity assigned at join time, empty before join.
func (s *Session) UserID() string { return s.userID }

// Position returns the current grid coordinates.
func (s *Session) Position() (int, int) { return s.x, s.y }

// Events exposes the outbound queue drained by the transport write loop.
func (s *Session) Events() <-chan *proto.Outbound { return s.events }

// Handle processes one inbound frame. A non-nil error is fatal to the
// connection; everything recoverable is logged and dropped.
func (s *Session) Handle(ctx context.Context, in proto.Inbound) error {
	switch in.Type {
	case proto.InboundTypeJoin:
		if s.state != stateUnjoined {
			s.log.Warn().Str("session_id", s.id).Msg("join on already joined session, dropping")
			return nil
		}
		var p proto.JoinPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			s.log.Warn().Err(err).Str("session_id", s.id).Msg("bad join payload, dropping")
			return nil
		}
		return s.join(ctx, p)
	case proto.InboundTypeMove:
		if s.state != stateJoined {
			s.log.Warn().Str("session_id", s.id).Msg("move before join, dropping")
			return nil
		}
		var p proto.MovePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			s.log.Warn().Err(err).Str("session_id", s.id).Msg("bad move payload, dropping")
			return nil
		}
		s.move(p)
		return nil
	default:
		s.log.Warn().Str("session_id", s.id).Str("type", in.Type).Msg("unknown message type, dropping")
		return nil
	}
}

func (s *Session) join(ctx context.Context, p proto.JoinPayload) error {
	userID, err := s.verifier.VerifyCredential(p.Token)
	if err != nil {
		return fmt.Errorf("%w: verify credential: %w", ErrJoinRejected, err)
	}

	space, err := s.spaces.Lookup(ctx, p.SpaceID)
	if err != nil {
		return fmt.Errorf("%w: lookup space %q: %w", ErrJoinRejected, p.SpaceID, err)
	}

	s.userID = userID
	s.spaceID = space.ID
	s.width = space.Width
	s.height = space.Height
	s.x, s.y = s.spawn(space.Width, space.Height)

	prior := s.registry.Join(s.spaceID, s)
	s.state = stateJoined

	users := make([]proto.UserRef, 0, len(prior))
	for _, m := range prior {
		users = append(users, proto.UserRef{ID: m.UserID()})
	}

	s.deliver(&proto.Outbound{
		Type: proto.OutboundTypeSpaceJoined,
		Payload: proto.SpaceJoinedPayload{
			Spawn:   proto.Position{X: s.x, Y: s.y},
			SpaceID: s.spaceID,
			Users:   users,
		},
	})

	s.registry.Broadcast(&proto.Outbound{
		Type:    proto.OutboundTypeUserJoined,
		Payload: proto.UserJoinedPayload{UserID: s.userID, X: s.x, Y: s.y},
	}, s, s.spaceID)

	s.log.Info().
		Str("session_id", s.id).
		Str("user_id", s.userID).
		Str("space_id", s.spaceID).
		Int("x", s.x).Int("y", s.y).
		Msg("session joined space")
	return nil
}

// move applies the single-step movement rule: exactly one axis changes by
// exactly one cell, and the target stays inside the space bounds. Rejection
// answers the mover only, with the unchanged position.
func (s *Session) move(p proto.MovePayload) {
	dx := abs(p.X - s.x)
	dy := abs(p.Y - s.y)
	singleStep := (dx == 1 && dy == 0) || (dx == 0 && dy == 1)
	inBounds := p.X >= 0 && p.X < s.width && p.Y >= 0 && p.Y < s.height

	if !singleStep || !inBounds {
		s.deliver(&proto.Outbound{
			Type:    proto.OutboundTypeMovementRejected,
			Payload: proto.MovementRejectedPayload{X: s.x, Y: s.y},
		})
		return
	}

	s.x, s.y = p.X, p.Y
	s.registry.Broadcast(&proto.Outbound{
		Type:    proto.OutboundTypeMovement,
		Payload: proto.MovementPayload{X: s.x, Y: s.y},
	}, s, s.spaceID)
}

// Close runs the disconnect transition. The transport invokes it exactly
// once per connection, after both pump goroutines have stopped.
func (s *Session) Close() {
	if s.state != stateJoined {
		s.state = stateClosed
		return
	}
	s.state = stateClosed

	s.registry.Broadcast(&proto.Outbound{
		Type:    proto.OutboundTypeUserLeft,
		Payload: proto.UserLeftPayload{UserID: s.userID},
	}, s, s.spaceID)
	s.registry.Leave(s, s.spaceID)

	s.log.Info().
		Str("session_id", s.id).
		Str("user_id", s.userID).
		Str("space_id", s.spaceID).
		Msg("session left space")
	s.spaceID = ""
}

// deliver queues an outbound message, dropping it if the client is too slow.
func (s *Session) deliver(msg *proto.Outbound) {
	select {
	case s.events <- msg:
	default:
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
