package signaling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a remote signaling server. It mirrors the Signaler
// interface so the negotiation layer works against either a local Service
// or a remote relay.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) CreateRoom(offer json.RawMessage, candidates []json.RawMessage) (string, error) {
	body := createRoomRequest{
		Offer:         offer,
		ICECandidates: candidates,
	}
	var resp createRoomResponse
	if err := c.post(c.baseURL+"/rooms", body, &resp); err != nil {
		return "", err
	}
	return resp.RoomID, nil
}

func (c *Client) GetRoom(id string) (RoomView, error) {
	res, err := c.http.Get(c.roomURL(id))
	if err != nil {
		return RoomView{}, fmt.Errorf("get room: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if err := checkStatus(res.StatusCode); err != nil {
		return RoomView{}, err
	}

	var view RoomView
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		return RoomView{}, fmt.Errorf("decode room: %w", err)
	}
	return view, nil
}

func (c *Client) SubmitAnswer(id string, answer json.RawMessage, candidates []json.RawMessage) error {
	body := answerRequest{
		Answer:        answer,
		ICECandidates: candidates,
	}
	var resp successResponse
	return c.post(c.roomURL(id)+"/answer", body, &resp)
}

func (c *Client) roomURL(id string) string {
	return c.baseURL + "/rooms/" + url.PathEscape(id)
}

func (c *Client) post(endpoint string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res, err := c.http.Post(endpoint, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer func() { _ = res.Body.Close() }()

	if err := checkStatus(res.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusNotFound:
		return ErrRoomNotFound
	case code == http.StatusBadRequest:
		return ErrInvalidPayload
	case code != http.StatusOK:
		return fmt.Errorf("signaling server returned status %d", code)
	}
	return nil
}

var _ Signaler = (*Client)(nil)
