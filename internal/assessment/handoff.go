package assessment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shams-academy/assessment/internal/model"
)

// ErrResultNotFound is returned by a ResultStore with nothing saved for the key.
var ErrResultNotFound = errors.New("result not found")

// TestSource loads a test with its ordered questions and answer key.
// Failures are reported as ErrTestUnavailable.
type TestSource interface {
	FetchTest(ctx context.Context, testID uuid.UUID) (*model.Test, error)
}

// ResultSink receives each finished result exactly once.
type ResultSink interface {
	SubmitResult(ctx context.Context, rec model.ResultRecord) error
}

// ResultStore keeps the latest result per user and test so the results view
// can read it after the attempt is gone.
type ResultStore interface {
	Save(ctx context.Context, rec model.ResultRecord) error
	Load(ctx context.Context, userID int, testID uuid.UUID) (*model.ResultRecord, error)
	Clear(ctx context.Context, userID int, testID uuid.UUID) error
}

type resultKey struct {
	userID int
	testID uuid.UUID
}

// MemoryResultStore is an in-process ResultStore.
type MemoryResultStore struct {
	m sync.Map
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{}
}

func (s *MemoryResultStore) Save(_ context.Context, rec model.ResultRecord) error {
	rec.Answers = model.CloneAnswers(rec.Answers)
	s.m.Store(resultKey{rec.UserID, rec.TestID}, rec)
	return nil
}

func (s *MemoryResultStore) Load(_ context.Context, userID int, testID uuid.UUID) (*model.ResultRecord, error) {
	v, ok := s.m.Load(resultKey{userID, testID})
	if !ok {
		return nil, ErrResultNotFound
	}
	rec := v.(model.ResultRecord)
	rec.Answers = model.CloneAnswers(rec.Answers)
	return &rec, nil
}

// Clear drops a saved result.
func (s *MemoryResultStore) Clear(_ context.Context, userID int, testID uuid.UUID) error {
	s.m.Delete(resultKey{userID, testID})
	return nil
}
