package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/assessment"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/model"
)

// ErrResultNotFound is returned when a user has no result for a test.
var ErrResultNotFound = errors.New("result not found")

// ResultArchive is the PostgreSQL side of results.
type ResultArchive interface {
	GetLatest(ctx context.Context, userID int, testID uuid.UUID) (*model.ResultRecord, error)
	ListByUser(ctx context.Context, userID int) ([]model.ResultRecord, error)
	Exists(ctx context.Context, userID int, testID uuid.UUID) (bool, error)
	ListActivities(ctx context.Context, userID, limit int) ([]model.Activity, error)
}

// ResultService backs the results view. Fresh results come from the
// ResultStore the attempt wrote to; older ones from PostgreSQL.
type ResultService struct {
	store   assessment.ResultStore
	archive ResultArchive
	log     zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(store assessment.ResultStore, archive ResultArchive, log zerolog.Logger) *ResultService {
	return &ResultService{
		store:   store,
		archive: archive,
		log:     logger.Component(log, "result_service"),
	}
}

// Get returns the latest result of a user for a test.
func (s *ResultService) Get(ctx context.Context, userID int, testID uuid.UUID) (*model.ResultRecord, error) {
	rec, err := s.store.Load(ctx, userID, testID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, assessment.ErrResultNotFound) {
		s.log.Warn().Err(err).Int("user_id", userID).Str("test_id", testID.String()).Msg("result store read failed")
	}

	rec, err = s.archive.GetLatest(ctx, userID, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return rec, nil
}

// ListMine returns a user's result history, newest first.
func (s *ResultService) ListMine(ctx context.Context, userID int) ([]model.ResultRecord, error) {
	return s.archive.ListByUser(ctx, userID)
}

// Exists reports whether the user already finished the test, counting results
// not yet persisted by the worker.
func (s *ResultService) Exists(ctx context.Context, userID int, testID uuid.UUID) (bool, error) {
	if _, err := s.store.Load(ctx, userID, testID); err == nil {
		return true, nil
	}
	return s.archive.Exists(ctx, userID, testID)
}

// Activities returns the latest activity entries of a user.
func (s *ResultService) Activities(ctx context.Context, userID, limit int) ([]model.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.archive.ListActivities(ctx, userID, limit)
}
