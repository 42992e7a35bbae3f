// Package signaling implements the room-keyed connection-setup relay: an
// expiring room store, the create/fetch/answer service on top of it, and the
// HTTP surface both peers poll during negotiation.
package signaling

import (
	"encoding/json"
	"errors"
)

var (
	// ErrInvalidPayload is returned when a required field is absent from a
	// signaling request.
	ErrInvalidPayload = errors.New("missing offer or ICE candidates")

	// ErrRoomNotFound is returned for rooms that never existed or have
	// passed their TTL. Callers surface it as "link expired".
	ErrRoomNotFound = errors.New("room not found")
)

// Room is the persisted signaling record. Offer, answer and candidate
// payloads are opaque blobs produced by the transport layer; the relay never
// inspects them.
type Room struct {
	ID               string `gorm:"primaryKey"`
	Offer            []byte
	OfferCandidates  []byte
	Answer           []byte
	AnswerCandidates []byte
	CreatedAt        int64
}

// RoomView is the wire shape of a room as returned by GetRoom. Answer and
// AnswerCandidates are nil until the responder has submitted.
type RoomView struct {
	Offer            json.RawMessage   `json:"offer"`
	OfferCandidates  []json.RawMessage `json:"iceCandidates"`
	Answer           json.RawMessage   `json:"answer,omitempty"`
	AnswerCandidates []json.RawMessage `json:"answerCandidates,omitempty"`
}

// Answered reports whether the responder's answer has been stored.
func (v RoomView) Answered() bool {
	return len(v.Answer) > 0
}

func marshalCandidates(candidates []json.RawMessage) ([]byte, error) {
	if candidates == nil {
		candidates = []json.RawMessage{}
	}
	return json.Marshal(candidates)
}

func unmarshalCandidates(data []byte) ([]json.RawMessage, error) {
	if len(data) == 0 {
		return []json.RawMessage{}, nil
	}
	var candidates []json.RawMessage
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}
