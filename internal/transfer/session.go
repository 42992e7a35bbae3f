package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrChannelClosed reports an underlying channel failure. Fatal to the
	// current session; the core never retries.
	ErrChannelClosed = errors.New("transfer channel closed")

	// ErrUnexpectedFrame reports a protocol violation: a binary frame before
	// any metadata, or more chunk bytes than the metadata announced.
	ErrUnexpectedFrame = errors.New("unexpected frame")

	// ErrIncompleteTransfer reports a channel that closed before the
	// announced byte count was reached. Partial data is discarded.
	ErrIncompleteTransfer = errors.New("incomplete transfer")
)

// Metadata describes the file in flight. Sent exactly once per logical
// transfer, before any chunk.
type Metadata struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// File is a fully reassembled transfer artifact.
type File struct {
	Name string
	Data []byte
}

// State tracks a session through one transfer.
type State int

const (
	StateIdle State = iota
	StateSending
	StateMetadataReceived
	StateReceiving
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateMetadataReceived:
		return "metadata-received"
	case StateReceiving:
		return "receiving"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProgressFunc observes transfer progress after each frame. transferred
// grows monotonically and equals total exactly on success.
type ProgressFunc func(transferred, total int64)

// Session drives the chunk protocol on one side of a channel. A session can
// send or receive; the receive side may be reused for consecutive transfers
// on the same channel.
type Session struct {
	logger   *logrus.Logger
	progress ProgressFunc

	mu    sync.Mutex
	state State
}

func NewSession(logger *logrus.Logger, progress ProgressFunc) *Session {
	if progress == nil {
		progress = func(int64, int64) {}
	}
	return &Session{
		logger:   logger,
		progress: progress,
		state:    StateIdle,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) fail(err error) error {
	s.setState(StateFailed)
	return err
}

// Send announces the file, then streams it as ordered fixed-size chunks.
// It yields the scheduler between chunks so one large transfer cannot starve
// other work in the process; the channel provides no other suspension point
// on the send path.
func (s *Session) Send(ctx context.Context, ch Channel, name string, r io.Reader, size int64) error {
	s.setState(StateSending)

	meta, err := json.Marshal(Metadata{FileName: name, FileSize: size})
	if err != nil {
		return s.fail(err)
	}
	if err := ch.SendText(string(meta)); err != nil {
		return s.fail(fmt.Errorf("%w: %v", ErrChannelClosed, err))
	}

	var sent int64
	for sent < size {
		select {
		case <-ctx.Done():
			return s.fail(ctx.Err())
		default:
		}

		chunkLen := int64(ChunkSize)
		if remaining := size - sent; remaining < chunkLen {
			chunkLen = remaining
		}
		chunk := make([]byte, chunkLen)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return s.fail(fmt.Errorf("read chunk at offset %d: %w", sent, err))
		}

		if err := ch.Send(chunk); err != nil {
			return s.fail(fmt.Errorf("%w: %v", ErrChannelClosed, err))
		}
		sent += chunkLen
		s.progress(sent, size)

		runtime.Gosched()
	}

	if size == 0 {
		s.progress(0, 0)
	}
	s.setState(StateComplete)
	return nil
}

// Receive consumes frames until one complete file has arrived. The first
// frame must be metadata; completion is detected once the accumulated bytes
// reach the announced size. A second metadata frame before completion resets
// the accumulator and starts a new logical transfer.
func (s *Session) Receive(ctx context.Context, ch Channel) (*File, error) {
	s.setState(StateIdle)

	var (
		meta     Metadata
		haveMeta bool
		chunks   [][]byte
		received int64
	)

	handle := func(msg Message) (*File, error) {
		if msg.Text {
			if haveMeta && received < meta.FileSize {
				s.logger.Warnf("New metadata frame mid-transfer, discarding %d buffered bytes", received)
			}
			if err := json.Unmarshal(msg.Data, &meta); err != nil {
				return nil, s.fail(fmt.Errorf("%w: bad metadata: %v", ErrUnexpectedFrame, err))
			}
			if meta.FileSize < 0 {
				return nil, s.fail(fmt.Errorf("%w: negative file size", ErrUnexpectedFrame))
			}
			haveMeta = true
			chunks = nil
			received = 0
			s.setState(StateMetadataReceived)

			if meta.FileSize == 0 {
				s.progress(0, 0)
				s.setState(StateComplete)
				return &File{Name: meta.FileName, Data: []byte{}}, nil
			}
			return nil, nil
		}

		if !haveMeta {
			return nil, s.fail(fmt.Errorf("%w: binary frame before metadata", ErrUnexpectedFrame))
		}
		s.setState(StateReceiving)

		chunks = append(chunks, msg.Data)
		received += int64(len(msg.Data))
		if received > meta.FileSize {
			return nil, s.fail(fmt.Errorf("%w: got %d bytes, announced %d", ErrUnexpectedFrame, received, meta.FileSize))
		}
		s.progress(received, meta.FileSize)

		if received == meta.FileSize {
			s.setState(StateComplete)
			return &File{Name: meta.FileName, Data: assemble(chunks, received)}, nil
		}
		return nil, nil
	}

	closed := func() error {
		if haveMeta {
			return s.fail(fmt.Errorf("%w: got %d of %d bytes", ErrIncompleteTransfer, received, meta.FileSize))
		}
		return s.fail(ErrChannelClosed)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, s.fail(ctx.Err())
		case msg := <-ch.Recv():
			file, err := handle(msg)
			if err != nil {
				return nil, err
			}
			if file != nil {
				return file, nil
			}
		case <-ch.Done():
			// Drain frames delivered before the close won the select.
			for {
				select {
				case msg := <-ch.Recv():
					file, err := handle(msg)
					if err != nil {
						return nil, err
					}
					if file != nil {
						return file, nil
					}
				default:
					return nil, closed()
				}
			}
		}
	}
}

// assemble concatenates chunks in receipt order; the channel's ordering
// guarantee makes that the original byte order.
func assemble(chunks [][]byte, size int64) []byte {
	out := make([]byte, 0, size)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
