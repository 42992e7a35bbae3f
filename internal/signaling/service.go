package signaling

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Signaler is the room lifecycle as seen by a peer. It is implemented
// in-process by Service and over the wire by Client, so the negotiation
// layer does not care which side of the HTTP surface it sits on.
type Signaler interface {
	CreateRoom(offer json.RawMessage, candidates []json.RawMessage) (string, error)
	GetRoom(id string) (RoomView, error)
	SubmitAnswer(id string, answer json.RawMessage, candidates []json.RawMessage) error
}

// Service enforces the room lifecycle over the store: one offer at creation,
// at most one live answer, repeated idempotent reads for polling. Holding a
// room id is the only access control; ids are unguessable UUIDs.
type Service struct {
	store  *RoomStore
	logger *logrus.Logger
}

func NewService(store *RoomStore, logger *logrus.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// CreateRoom validates presence of the offer and candidate list and stores a
// new room. An empty candidate list is valid; an absent one is not. Payload
// contents are never inspected.
func (s *Service) CreateRoom(offer json.RawMessage, candidates []json.RawMessage) (string, error) {
	if len(offer) == 0 || candidates == nil {
		return "", ErrInvalidPayload
	}

	id, err := s.store.Put(offer, candidates)
	if err != nil {
		return "", err
	}
	s.logger.Infof("Created room %s with %d offer candidates", id, len(candidates))
	return id, nil
}

// GetRoom is a pure read, safe to call repeatedly as the polling primitive.
func (s *Service) GetRoom(id string) (RoomView, error) {
	return s.store.Get(id)
}

// SubmitAnswer stores the responder's answer. A second submission for the
// same room overwrites the first (last-writer-wins).
func (s *Service) SubmitAnswer(id string, answer json.RawMessage, candidates []json.RawMessage) error {
	if len(answer) == 0 || candidates == nil {
		return ErrInvalidPayload
	}

	if err := s.store.SetAnswer(id, answer, candidates); err != nil {
		return err
	}
	s.logger.Infof("Stored answer for room %s with %d candidates", id, len(candidates))
	return nil
}

var _ Signaler = (*Service)(nil)
