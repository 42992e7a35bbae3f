package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRoomTTL bounds how long an abandoned room occupies storage.
const DefaultRoomTTL = 30 * time.Minute

// RoomStore persists rooms with a fixed time-to-live. Expiry is lazy: reads
// and updates never touch records older than the TTL, so an expired room
// behaves as not-found even before the sweeper deletes it. No update can
// resurrect an expired record.
type RoomStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Room{}); err != nil {
		return nil, err
	}
	return db, nil
}

func NewRoomStore(db *gorm.DB, ttl time.Duration) *RoomStore {
	if ttl <= 0 {
		ttl = DefaultRoomTTL
	}
	return &RoomStore{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// cutoff is the oldest creation time still considered live.
func (s *RoomStore) cutoff() int64 {
	return s.now().Add(-s.ttl).Unix()
}

// Put stores a new room and returns its generated id.
func (s *RoomStore) Put(offer json.RawMessage, candidates []json.RawMessage) (string, error) {
	candidateData, err := marshalCandidates(candidates)
	if err != nil {
		return "", err
	}

	room := Room{
		ID:              uuid.NewString(),
		Offer:           offer,
		OfferCandidates: candidateData,
		CreatedAt:       s.now().Unix(),
	}
	if err := s.db.Create(&room).Error; err != nil {
		return "", err
	}
	return room.ID, nil
}

// Get returns a live room or ErrRoomNotFound.
func (s *RoomStore) Get(id string) (RoomView, error) {
	var room Room
	err := s.db.First(&room, "id = ? AND created_at > ?", id, s.cutoff()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RoomView{}, ErrRoomNotFound
	}
	if err != nil {
		return RoomView{}, err
	}

	offerCandidates, err := unmarshalCandidates(room.OfferCandidates)
	if err != nil {
		return RoomView{}, err
	}

	view := RoomView{
		Offer:           room.Offer,
		OfferCandidates: offerCandidates,
	}
	if len(room.Answer) > 0 {
		view.Answer = room.Answer
		answerCandidates, err := unmarshalCandidates(room.AnswerCandidates)
		if err != nil {
			return RoomView{}, err
		}
		view.AnswerCandidates = answerCandidates
	}
	return view, nil
}

// SetAnswer stores the responder's answer and its candidates in a single
// update, so a concurrent reader never observes one without the other.
// Submitting to an already-answered room overwrites the previous answer
// (last-writer-wins, matching the reference relay).
func (s *RoomStore) SetAnswer(id string, answer json.RawMessage, candidates []json.RawMessage) error {
	candidateData, err := marshalCandidates(candidates)
	if err != nil {
		return err
	}

	result := s.db.Model(&Room{}).
		Where("id = ? AND created_at > ?", id, s.cutoff()).
		Updates(map[string]interface{}{
			"answer":            []byte(answer),
			"answer_candidates": candidateData,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// Sweep deletes expired rooms and returns how many were removed.
func (s *RoomStore) Sweep() (int64, error) {
	result := s.db.Where("created_at <= ?", s.cutoff()).Delete(&Room{})
	return result.RowsAffected, result.Error
}

// StartSweeper deletes expired rooms on the given interval until ctx is
// canceled. Lazy expiry already hides expired rooms from readers; the
// sweeper only reclaims storage.
func (s *RoomStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.Sweep()
			}
		}
	}()
}
