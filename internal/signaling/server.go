package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server exposes the signaling service over HTTP:
//
//	POST /rooms              {offer, iceCandidates}  -> {roomId}
//	GET  /rooms/{id}                                 -> room view
//	POST /rooms/{id}/answer  {answer, iceCandidates} -> {success:true}
type Server struct {
	service *Service
	logger  *logrus.Logger
	http    *http.Server
}

type createRoomRequest struct {
	Offer         json.RawMessage   `json:"offer"`
	ICECandidates []json.RawMessage `json:"iceCandidates"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

type answerRequest struct {
	Answer        json.RawMessage   `json:"answer"`
	ICECandidates []json.RawMessage `json:"iceCandidates"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(addr string, service *Service, logger *logrus.Logger) *Server {
	s := &Server{
		service: service,
		logger:  logger,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{id}", s.handleGetRoom)
	mux.HandleFunc("POST /rooms/{id}/answer", s.handleSubmitAnswer)
	return mux
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()
	s.logger.Infof("Signaling server listening on %s", s.http.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomID, err := s.service.CreateRoom(req.Offer, req.ICECandidates)
	if errors.Is(err, ErrInvalidPayload) {
		s.writeError(w, http.StatusBadRequest, "Missing offer or ICE candidates")
		return
	}
	if err != nil {
		s.logger.Errorf("Failed to create room: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	s.writeJSON(w, http.StatusOK, createRoomResponse{RoomID: roomID})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetRoom(r.PathValue("id"))
	if errors.Is(err, ErrRoomNotFound) {
		s.writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		s.logger.Errorf("Failed to get room: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to get room")
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.service.SubmitAnswer(r.PathValue("id"), req.Answer, req.ICECandidates)
	switch {
	case errors.Is(err, ErrInvalidPayload):
		s.writeError(w, http.StatusBadRequest, "Missing answer or ICE candidates")
	case errors.Is(err, ErrRoomNotFound):
		s.writeError(w, http.StatusNotFound, "Room not found")
	case err != nil:
		s.logger.Errorf("Failed to add answer: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to add answer")
	default:
		s.writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warnf("Failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
