// Package negotiate orchestrates the two-sided handshake: the initiator
// publishes an offer into a room and polls for the answer; the responder
// fetches the offer, answers, and publishes back. Either side ends with a
// transport ready to open its direct channel.
package negotiate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dropwire/dropwire/internal/signaling"
)

var (
	// ErrNegotiationTimeout reports that no answer appeared within the
	// polling window. Recoverable by rerunning negotiation with a fresh
	// room; the coordinator itself never retries.
	ErrNegotiationTimeout = errors.New("no answer within the polling window")

	// ErrRoomNotFound mirrors the signaling error for absent or expired
	// rooms.
	ErrRoomNotFound = signaling.ErrRoomNotFound
)

// Transport is the negotiation face of the transport capability.
type Transport interface {
	CreateOffer() (json.RawMessage, error)
	CreateAnswer(offer json.RawMessage) (json.RawMessage, error)
	AcceptAnswer(answer json.RawMessage) error
	AddRemoteCandidate(candidate json.RawMessage) error
	Candidates() []json.RawMessage
}

// Config carries the negotiation timing knobs. Zero values take the
// reference defaults.
type Config struct {
	// PollInterval is how often the initiator re-reads the room.
	PollInterval time.Duration
	// AnswerTimeout bounds the whole polling window.
	AnswerTimeout time.Duration
	// CandidateGrace is how long each side lets local candidates accumulate
	// before publishing. Candidates discovered later are dropped from the
	// publish; a fixed window is a known heuristic kept from the reference
	// behavior. Negative disables the wait.
	CandidateGrace time.Duration
}

const (
	defaultPollInterval   = 2 * time.Second
	defaultAnswerTimeout  = 5 * time.Minute
	defaultCandidateGrace = 2 * time.Second
)

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.AnswerTimeout <= 0 {
		c.AnswerTimeout = defaultAnswerTimeout
	}
	if c.CandidateGrace == 0 {
		c.CandidateGrace = defaultCandidateGrace
	}
	return c
}

// Coordinator drives both handshake roles against one signaler.
type Coordinator struct {
	signaler signaling.Signaler
	config   Config
	logger   *logrus.Logger
}

func NewCoordinator(signaler signaling.Signaler, cfg Config, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		signaler: signaler,
		config:   cfg.withDefaults(),
		logger:   logger,
	}
}

// CreateRoom runs the first half of the initiator flow: produce the offer,
// wait the candidate collection grace period, and publish both into a new
// room. Returns the room id to hand to the responder out of band.
func (c *Coordinator) CreateRoom(ctx context.Context, t Transport) (string, error) {
	offer, err := t.CreateOffer()
	if err != nil {
		return "", err
	}

	if err := c.waitGrace(ctx); err != nil {
		return "", err
	}

	roomID, err := c.signaler.CreateRoom(offer, t.Candidates())
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	c.logger.Infof("Published offer to room %s", roomID)
	return roomID, nil
}

// AwaitAnswer polls the room until an answer appears, then completes
// negotiation with it. Polling stops the moment the answer is observed, on
// timeout, or when ctx is canceled.
func (c *Coordinator) AwaitAnswer(ctx context.Context, t Transport, roomID string) error {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(c.config.AnswerTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrNegotiationTimeout
		case <-ticker.C:
			view, err := c.signaler.GetRoom(roomID)
			if err != nil {
				// Transient poll failures keep the window open; the
				// deadline bounds how long we keep trying.
				c.logger.Warnf("Polling room %s failed: %v", roomID, err)
				continue
			}
			if !view.Answered() {
				continue
			}

			c.logger.Infof("Answer observed for room %s, completing negotiation", roomID)
			if err := t.AcceptAnswer(view.Answer); err != nil {
				return err
			}
			c.addCandidates(t, view.AnswerCandidates)
			return nil
		}
	}
}

// Respond runs the responder flow: fetch the offer, answer it, publish the
// answer after the candidate grace period, and feed the initiator's
// candidates into the transport.
func (c *Coordinator) Respond(ctx context.Context, t Transport, roomID string) error {
	view, err := c.signaler.GetRoom(roomID)
	if err != nil {
		return err
	}

	answer, err := t.CreateAnswer(view.Offer)
	if err != nil {
		return err
	}

	if err := c.waitGrace(ctx); err != nil {
		return err
	}

	if err := c.signaler.SubmitAnswer(roomID, answer, t.Candidates()); err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}
	c.logger.Infof("Published answer to room %s", roomID)

	c.addCandidates(t, view.OfferCandidates)
	return nil
}

func (c *Coordinator) waitGrace(ctx context.Context) error {
	if c.config.CandidateGrace < 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.config.CandidateGrace):
		return nil
	}
}

func (c *Coordinator) addCandidates(t Transport, candidates []json.RawMessage) {
	for _, candidate := range candidates {
		if err := t.AddRemoteCandidate(candidate); err != nil {
			c.logger.Warnf("Failed to add remote candidate: %v", err)
		}
	}
}
