package core

import "errors"

var (
	// ErrJoinRejected wraps credential or space-lookup failures during join.
	// The transport closes the connection when it sees this.
	ErrJoinRejected = errors.New("join rejected")
)
