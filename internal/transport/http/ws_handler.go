package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/meshspace/meshspace-server/internal/core"
	"github.com/meshspace/meshspace-server/internal/directory"
	"github.com/meshspace/meshspace-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core.Session.
type WSHandler struct {
	registry *core.Registry
	verifier core.CredentialVerifier
	spaces   directory.Directory
	spawn    core.Spawner
	maxBytes int64
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *core.Registry, verifier core.CredentialVerifier, spaces directory.Directory, spawn core.Spawner, maxBytes int64, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		registry: registry,
		verifier: verifier,
		spaces:   spaces,
		spawn:    spawn,
		maxBytes: maxBytes,
		log:      logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxBytes > 0 {
		conn.SetReadLimit(h.maxBytes)
	}

	session := core.NewSession(h.registry, h.verifier, h.spaces, h.spawn, h.log)
	// Runs after both pump goroutines have stopped: the single disconnect
	// transition per connection.
	defer session.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if errors.Is(err, core.ErrJoinRejected) {
			// Fatal join failure: terminate without an error payload.
			conn.Close(websocket.StatusPolicyViolation, "join rejected")
			return
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			// Malformed frames are dropped; the connection stays usable.
			h.log.Warn().Err(err).Str("session_id", session.ID()).Msg("drop malformed frame")
			continue
		}

		if err := session.Handle(ctx, inbound); err != nil {
			h.log.Warn().Err(err).Str("session_id", session.ID()).Msg("session handler failed")
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		select {
		case msg := <-session.Events():
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				h.log.Error().Err(err).Str("session_id", session.ID()).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
