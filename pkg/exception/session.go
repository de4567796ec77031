package exception

import "errors"

// Session errors
var (
	// ErrFrameTooLarge is returned when a frame length exceeds the cap.
	ErrFrameTooLarge = errors.New("session: frame exceeds size cap")

	// ErrFrameTruncated is returned when a frame is shorter than its header.
	ErrFrameTruncated = errors.New("session: truncated frame")

	// ErrNotOnWire is returned for event types the wire does not carry.
	ErrNotOnWire = errors.New("session: event type not carried on the wire")

	// ErrLoginRejected is returned when the venue refuses the handshake.
	ErrLoginRejected = errors.New("session: login rejected")

	// ErrSessionClosed is returned when sending on a closed session.
	ErrSessionClosed = errors.New("session: closed")
)
