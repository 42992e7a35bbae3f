// Package transfer implements the chunked file protocol run over an ordered,
// reliable byte channel: one metadata frame, then fixed-size binary chunks,
// with completion detected purely by the announced byte count.
package transfer

// ChunkSize is the fixed chunk payload size. The last chunk of a file may be
// shorter.
const ChunkSize = 16 * 1024

// Message is one inbound frame. Text frames carry transfer metadata; binary
// frames carry chunk bytes. The distinction mirrors the data channel's
// native string/binary message kinds.
type Message struct {
	Text bool
	Data []byte
}

// Channel is an ordered, reliable bidirectional byte channel. The protocol
// has no sequence numbers or reordering logic; an implementation that cannot
// guarantee in-order reliable delivery must not be used here.
type Channel interface {
	// Send transmits one binary chunk frame.
	Send(data []byte) error
	// SendText transmits one metadata frame.
	SendText(s string) error
	// Recv yields inbound frames in delivery order.
	Recv() <-chan Message
	// Done is closed when the channel closes or fails. Frames already
	// delivered to Recv remain readable afterwards.
	Done() <-chan struct{}
	Close() error
}
