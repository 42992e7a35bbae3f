// Package peer wraps the WebRTC transport capability behind the narrow
// interface the negotiation and transfer layers drive: offer/answer
// production, candidate exchange, and a single ordered data channel.
package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"

	"github.com/dropwire/dropwire/internal/transfer"
)

var ErrClosed = errors.New("peer connection closed")

// Peer owns one WebRTC peer connection and its data channel. Offers,
// answers and candidates cross its boundary as opaque JSON so the signaling
// layer never depends on WebRTC types.
type Peer struct {
	logger *logrus.Logger
	pc     *webrtc.PeerConnection

	mu         sync.Mutex
	candidates []webrtc.ICECandidateInit

	events    chan Event
	channel   *dataChannel
	ready     chan struct{} // closed once the data channel opens
	readyOnce sync.Once
}

// New builds a peer connection. The initiator creates the data channel; the
// responder waits for it to arrive.
func New(cfg Config, initiator bool, logger *logrus.Logger) (*Peer, error) {
	pc, err := webrtc.NewPeerConnection(cfg.webrtc())
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	p := &Peer{
		logger: logger,
		pc:     pc,
		events: make(chan Event, 64),
		ready:  make(chan struct{}),
	}

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		p.logger.Infof("Peer connection state changed to %s", s)
		p.emit(Event{Kind: EventStateChanged, State: s})
		if s == webrtc.PeerConnectionStateFailed || s == webrtc.PeerConnectionStateClosed {
			p.mu.Lock()
			ch := p.channel
			p.mu.Unlock()
			if ch != nil {
				ch.markClosed()
			}
		}
	})

	pc.OnICECandidate(func(ice *webrtc.ICECandidate) {
		if ice == nil {
			return
		}
		candidate := ice.ToJSON()
		p.mu.Lock()
		p.candidates = append(p.candidates, candidate)
		p.mu.Unlock()
		p.emit(Event{Kind: EventCandidateGathered, Candidate: &candidate})
	})

	if initiator {
		dc, err := pc.CreateDataChannel(channelLabel, dataChannelInit())
		if err != nil {
			_ = pc.Close()
			return nil, fmt.Errorf("failed to create data channel: %w", err)
		}
		p.setupDataChannel(dc)
	} else {
		pc.OnDataChannel(func(dc *webrtc.DataChannel) {
			p.setupDataChannel(dc)
		})
	}

	return p, nil
}

func (p *Peer) setupDataChannel(dc *webrtc.DataChannel) {
	ch := newDataChannel(dc)

	p.mu.Lock()
	p.channel = ch
	p.mu.Unlock()

	dc.OnOpen(func() {
		p.logger.Infof("Data channel %q open", dc.Label())
		p.readyOnce.Do(func() { close(p.ready) })
		p.emit(Event{Kind: EventChannelOpen})
	})
}

func (p *Peer) emit(e Event) {
	select {
	case p.events <- e:
	default:
		// Event consumers are optional; never block the WebRTC callbacks.
	}
}

// Events yields typed peer notifications.
func (p *Peer) Events() <-chan Event {
	return p.events
}

// CreateOffer produces the local offer and starts candidate gathering.
func (p *Peer) CreateOffer() (json.RawMessage, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}
	return json.Marshal(offer)
}

// CreateAnswer accepts the remote offer and produces the local answer.
func (p *Peer) CreateAnswer(rawOffer json.RawMessage) (json.RawMessage, error) {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(rawOffer, &offer); err != nil {
		return nil, fmt.Errorf("malformed remote offer: %w", err)
	}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("failed to set remote description: %w", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}
	return json.Marshal(answer)
}

// AcceptAnswer completes negotiation on the initiator side.
func (p *Peer) AcceptAnswer(rawAnswer json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(rawAnswer, &answer); err != nil {
		return fmt.Errorf("malformed remote answer: %w", err)
	}
	if err := p.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}
	return nil
}

// AddRemoteCandidate feeds one remote reachability candidate into ICE.
func (p *Peer) AddRemoteCandidate(raw json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return fmt.Errorf("malformed remote candidate: %w", err)
	}
	if err := p.pc.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("failed to add ICE candidate: %w", err)
	}
	return nil
}

// Candidates snapshots the locally gathered candidates. Candidates
// discovered after the snapshot are not retroactively published; callers
// wait a collection grace period before taking it.
func (p *Peer) Candidates() []json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]json.RawMessage, 0, len(p.candidates))
	for _, c := range p.candidates {
		data, err := json.Marshal(c)
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}

// WaitChannel blocks until the data channel is open and returns it.
func (p *Peer) WaitChannel(ctx context.Context) (transfer.Channel, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ready:
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil, ErrClosed
	}
	return p.channel, nil
}

// Flush blocks until queued outbound data has drained from the data
// channel, so closing the connection cannot drop the transfer's tail.
func (p *Peer) Flush(ctx context.Context) error {
	p.mu.Lock()
	ch := p.channel
	p.mu.Unlock()
	if ch == nil {
		return nil
	}
	return ch.flush(ctx)
}

// Close releases the data channel and the peer connection. Safe to call at
// any time; any in-flight transfer fails with a channel error.
func (p *Peer) Close() error {
	p.mu.Lock()
	ch := p.channel
	p.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
	return p.pc.Close()
}
