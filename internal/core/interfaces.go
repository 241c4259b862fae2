// Package core owns room membership and broadcast fan-out. It never touches
// transport resources directly; connections are reached through the
// SignalConnection interface and closed by the adapter that created them.
package core

// ConnID is the opaque, server-assigned identifier of one live transport
// session. Minted on handshake, dead on close, never persisted.
type ConnID string

// NoExclude is the zero ConnID: broadcast to every member.
const NoExclude ConnID = ""

// Frame is one encoded wire message.
type Frame []byte

// SignalConnection is the send side of one connection. TrySend must not
// block: a full or closed connection returns an error and the frame is
// dropped for that recipient only.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports fan-out stats for one broadcast call.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}
