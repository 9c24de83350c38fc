package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	InboundTypeJoin = "join"
	InboundTypeMove = "move"

	OutboundTypeSpaceJoined      = "space-joined"
	OutboundTypeUserJoined       = "user-joined"
	OutboundTypeMovement         = "movement"
	OutboundTypeMovementRejected = "movement-rejected"
	OutboundTypeUserLeft         = "user-left"
)

// JoinPayload requests admission into a space.
type JoinPayload struct {
	SpaceID string `json:"spaceId"`
	Token   string `json:"token"`
}

// MovePayload requests an absolute target position.
type MovePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Position is a pair of grid coordinates.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UserRef identifies one space occupant.
type UserRef struct {
	ID string `json:"id"`
}

// SpaceJoinedPayload confirms admission to the joining client only.
type SpaceJoinedPayload struct {
	Spawn   Position  `json:"spawn"`
	SpaceID string    `json:"spaceId"`
	Users   []UserRef `json:"users"`
}

// UserJoinedPayload announces a new occupant to the rest of the space.
type UserJoinedPayload struct {
	UserID string `json:"userId"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// MovementPayload announces an accepted move to the rest of the space.
type MovementPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MovementRejectedPayload echoes the mover's unchanged position so the
// client can snap back to authoritative state.
type MovementRejectedPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UserLeftPayload announces a departure to the remaining occupants.
type UserLeftPayload struct {
	UserID string `json:"userId"`
}
