package core

import "errors"

// ErrConnClosed is returned by TrySend once the connection is closed.
var ErrConnClosed = errors.New("connection closed")

// Frame is a raw encoded event ready for the wire.
type Frame []byte

// SignalConnection is the outbound half of one client connection. TrySend
// never blocks. The transport adapter owns it and closes it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
