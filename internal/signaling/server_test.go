package signaling

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := newTestService(t)
	server := NewServer(":0", service, service.logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestServer_CreateRoom(t *testing.T) {
	ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/rooms", `{"offer":{"sdp":"o"},"iceCandidates":[]}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var body createRoomResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.RoomID == "" {
		t.Error("expected a room id")
	}
}

func TestServer_CreateRoomMissingFields(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{
		`{"iceCandidates":[]}`,
		`{"offer":{"sdp":"o"}}`,
	} {
		res := postJSON(t, ts.URL+"/rooms", body)
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, res.StatusCode)
		}
	}
}

func TestServer_GetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/rooms/nonexistent")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
}

func TestServer_AnswerFlow(t *testing.T) {
	ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/rooms", `{"offer":{"sdp":"o"},"iceCandidates":["c1","c2"]}`)
	var created createRoomResponse
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	res = postJSON(t, ts.URL+"/rooms/"+created.RoomID+"/answer", `{"answer":{"sdp":"a"},"iceCandidates":["c3"]}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for answer, got %d", res.StatusCode)
	}
	var ok successResponse
	if err := json.NewDecoder(res.Body).Decode(&ok); err != nil {
		t.Fatalf("failed to decode answer response: %v", err)
	}
	if !ok.Success {
		t.Error("expected success:true")
	}

	res, err := http.Get(ts.URL + "/rooms/" + created.RoomID)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = res.Body.Close() }()

	var view RoomView
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode room view: %v", err)
	}
	if string(view.Answer) != `{"sdp":"a"}` {
		t.Errorf("unexpected answer: %s", view.Answer)
	}
	if len(view.AnswerCandidates) != 1 {
		t.Errorf("expected 1 answer candidate, got %d", len(view.AnswerCandidates))
	}
}

func TestServer_AnswerNotFound(t *testing.T) {
	ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/rooms/nonexistent/answer", `{"answer":{"sdp":"a"},"iceCandidates":[]}`)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
}

// Client and Server share the wire shapes; drive one against the other.
func TestClient_RoundTrip(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(ts.URL)

	id, err := client.CreateRoom(json.RawMessage(`{"sdp":"o"}`), rawStrings(`"c1"`))
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	view, err := client.GetRoom(id)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if string(view.Offer) != `{"sdp":"o"}` {
		t.Errorf("unexpected offer: %s", view.Offer)
	}
	if view.Answered() {
		t.Error("room should not be answered yet")
	}

	if err := client.SubmitAnswer(id, json.RawMessage(`{"sdp":"a"}`), rawStrings(`"c3"`)); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	view, err = client.GetRoom(id)
	if err != nil {
		t.Fatalf("GetRoom after answer failed: %v", err)
	}
	if !view.Answered() {
		t.Error("expected answered room")
	}
}

func TestClient_NotFound(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(ts.URL)

	if _, err := client.GetRoom("missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
	err := client.SubmitAnswer("missing", json.RawMessage(`{}`), rawStrings())
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}
