package peer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestPeer(t *testing.T, initiator bool) *Peer {
	t.Helper()
	p, err := New(Config{}, initiator, testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPeer_CreateOffer(t *testing.T) {
	p := newTestPeer(t, true)

	raw, err := p.CreateOffer()
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &offer); err != nil {
		t.Fatalf("offer is not valid JSON: %v", err)
	}
	if offer.Type != webrtc.SDPTypeOffer {
		t.Errorf("expected offer type, got %s", offer.Type)
	}
	if offer.SDP == "" {
		t.Error("expected non-empty SDP")
	}
}

func TestPeer_OfferAnswerExchange(t *testing.T) {
	initiator := newTestPeer(t, true)
	responder := newTestPeer(t, false)

	rawOffer, err := initiator.CreateOffer()
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}

	rawAnswer, err := responder.CreateAnswer(rawOffer)
	if err != nil {
		t.Fatalf("CreateAnswer failed: %v", err)
	}

	var answer webrtc.SessionDescription
	if err := json.Unmarshal(rawAnswer, &answer); err != nil {
		t.Fatalf("answer is not valid JSON: %v", err)
	}
	if answer.Type != webrtc.SDPTypeAnswer {
		t.Errorf("expected answer type, got %s", answer.Type)
	}

	if err := initiator.AcceptAnswer(rawAnswer); err != nil {
		t.Fatalf("AcceptAnswer failed: %v", err)
	}
}

func TestPeer_MalformedPayloads(t *testing.T) {
	p := newTestPeer(t, false)

	if _, err := p.CreateAnswer(json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for malformed offer")
	}
	if err := p.AddRemoteCandidate(json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for malformed candidate")
	}

	initiator := newTestPeer(t, true)
	if err := initiator.AcceptAnswer(json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for malformed answer")
	}
}

func TestPeer_CandidatesSnapshotBeforeGathering(t *testing.T) {
	p := newTestPeer(t, true)

	if got := p.Candidates(); len(got) != 0 {
		t.Errorf("expected no candidates before gathering, got %d", len(got))
	}
}

func TestPeer_WaitChannelCanceled(t *testing.T) {
	p := newTestPeer(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.WaitChannel(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded while channel unopened, got %v", err)
	}
}
