package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shams-academy/assessment/internal/model"
)

// TestRepository handles test and question data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// GetByID retrieves a test with its questions in order.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, category, time_limit_seconds, is_active,
		        COALESCE(created_by, 0), created_at, updated_at
		 FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.TimeLimitSeconds, &t.IsActive,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	questions, err := r.ListQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Questions = questions
	return t, nil
}

// ListQuestions retrieves the questions of a test ordered by order_num.
func (r *TestRepository) ListQuestions(ctx context.Context, testID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, question_text, options, correct_option_index, order_num
		 FROM questions WHERE test_id = $1
		 ORDER BY order_num, id`, testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.Text, &q.Options, &q.CorrectOptionIndex, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

const summaryColumns = `
	SELECT t.id, t.title, t.description, t.category, t.time_limit_seconds,
	       (SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id),
	       EXISTS (SELECT 1 FROM results r WHERE r.test_id = t.id AND r.user_id = $1),
	       t.created_at
	FROM tests t`

// List returns active tests matching f. HasResult is computed for userID.
func (r *TestRepository) List(ctx context.Context, f model.TestFilter, userID int) ([]model.TestSummary, error) {
	query := summaryColumns + ` WHERE t.is_active`
	args := []any{userID}

	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND t.category = $%d", len(args))
	}
	if f.MaxTimeLimit > 0 {
		args = append(args, f.MaxTimeLimit)
		query += fmt.Sprintf(" AND t.time_limit_seconds <= $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND (t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args))
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tests := []model.TestSummary{}
	for rows.Next() {
		var s model.TestSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Category, &s.TimeLimitSeconds,
			&s.QuestionsCount, &s.HasResult, &s.CreatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, s)
	}
	return tests, rows.Err()
}

// GetSummary returns the catalogue row for one active test.
func (r *TestRepository) GetSummary(ctx context.Context, id uuid.UUID, userID int) (*model.TestSummary, error) {
	s := &model.TestSummary{}
	err := r.pool.QueryRow(ctx, summaryColumns+` WHERE t.is_active AND t.id = $2`, userID, id).
		Scan(&s.ID, &s.Title, &s.Description, &s.Category, &s.TimeLimitSeconds,
			&s.QuestionsCount, &s.HasResult, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new test.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	var createdBy *int
	if t.CreatedBy > 0 {
		createdBy = &t.CreatedBy
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (title, description, category, time_limit_seconds, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		t.Title, t.Description, t.Category, t.TimeLimitSeconds, t.IsActive, createdBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// AddQuestion inserts a question. An OrderNum of 0 appends it after the
// current last question.
func (r *TestRepository) AddQuestion(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (test_id, question_text, options, correct_option_index, order_num)
		 VALUES ($1, $2, $3, $4,
		         CASE WHEN $5 > 0 THEN $5
		              ELSE (SELECT COALESCE(MAX(order_num), 0) + 1 FROM questions WHERE test_id = $1) END)
		 RETURNING id, order_num`,
		q.TestID, q.Text, q.Options, q.CorrectOptionIndex, q.OrderNum,
	).Scan(&q.ID, &q.OrderNum)
}

// Touch bumps updated_at after the question set changed.
func (r *TestRepository) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE tests SET updated_at = NOW() WHERE id = $1`, id)
	return err
}

// ListActiveIDs returns all active test IDs. Used for cache prewarming on
// startup.
func (r *TestRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tests WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
