package peer

import "github.com/pion/webrtc/v3"

// EventKind discriminates peer events.
type EventKind int

const (
	// EventStateChanged reports a peer connection state transition.
	EventStateChanged EventKind = iota
	// EventChannelOpen reports that the data channel is ready for frames.
	EventChannelOpen
	// EventCandidateGathered reports a newly discovered local candidate.
	EventCandidateGathered
)

// Event is one typed peer notification. Consumers read them from
// Peer.Events instead of registering overwritable callbacks.
type Event struct {
	Kind      EventKind
	State     webrtc.PeerConnectionState
	Candidate *webrtc.ICECandidateInit
}
