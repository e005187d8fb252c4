package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shams-academy/assessment/internal/model"
)

// ResultRepository handles result and activity data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, user_id, test_id, test_title, correct, incorrect, unanswered,
	score, time_spent_seconds, answers, feedback, completed_at`

func scanResult(row pgx.Row) (*model.ResultRecord, error) {
	rec := &model.ResultRecord{}
	var answers []int
	err := row.Scan(&rec.ID, &rec.UserID, &rec.TestID, &rec.TestTitle,
		&rec.CorrectCount, &rec.IncorrectCount, &rec.UnansweredCount,
		&rec.ScorePercent, &rec.TimeSpentSeconds, &answers, &rec.Feedback, &rec.CompletedAt)
	if err != nil {
		return nil, err
	}
	rec.Answers = toAnswers(answers)
	return rec, nil
}

// GetLatest returns the most recent result of a user for a test.
func (r *ResultRepository) GetLatest(ctx context.Context, userID int, testID uuid.UUID) (*model.ResultRecord, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+`
		 FROM results WHERE user_id = $1 AND test_id = $2
		 ORDER BY completed_at DESC LIMIT 1`, userID, testID))
}

// ListByUser returns a user's results, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID int) ([]model.ResultRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM results WHERE user_id = $1
		 ORDER BY completed_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.ResultRecord{}
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *rec)
	}
	return results, rows.Err()
}

// Exists reports whether a user already has a result for a test.
func (r *ResultRepository) Exists(ctx context.Context, userID int, testID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM results WHERE user_id = $1 AND test_id = $2)`,
		userID, testID).Scan(&ok)
	return ok, err
}

// InsertBatch stores results and their activity entries in one transaction.
// Records already stored (same ID) are skipped, so a requeued batch is safe.
func (r *ResultRepository) InsertBatch(ctx context.Context, batch []model.ResultRecord) error {
	if len(batch) == 0 {
		return nil
	}
	n := len(batch)
	var (
		ids         = make([]uuid.UUID, n)
		users       = make([]int, n)
		tests       = make([]uuid.UUID, n)
		titles      = make([]string, n)
		correct     = make([]int, n)
		incorrect   = make([]int, n)
		unanswered  = make([]int, n)
		scores      = make([]int, n)
		spent       = make([]int, n)
		feedback    = make([]string, n)
		completedAt = make([]time.Time, n)
	)
	for i, rec := range batch {
		ids[i] = rec.ID
		users[i] = rec.UserID
		tests[i] = rec.TestID
		titles[i] = rec.TestTitle
		correct[i] = rec.CorrectCount
		incorrect[i] = rec.IncorrectCount
		unanswered[i] = rec.UnansweredCount
		scores[i] = rec.ScorePercent
		spent[i] = rec.TimeSpentSeconds
		feedback[i] = string(rec.Feedback)
		completedAt[i] = rec.CompletedAt
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Answer arrays differ in length per test, so they cannot go through a
	// single UNNEST; the rows are inserted first and answers filled per row.
	tag, err := tx.Exec(ctx, `
		INSERT INTO results (id, user_id, test_id, test_title, correct, incorrect, unanswered,
		                     score, time_spent_seconds, answers, feedback, completed_at)
		SELECT u.id, u.user_id, u.test_id, u.test_title, u.correct, u.incorrect, u.unanswered,
		       u.score, u.time_spent_seconds, '{}'::int[], u.feedback, u.completed_at
		FROM UNNEST(
			$1::uuid[], $2::int[], $3::uuid[], $4::text[], $5::int[], $6::int[],
			$7::int[], $8::int[], $9::int[], $10::text[], $11::timestamptz[]
		) AS u (id, user_id, test_id, test_title, correct, incorrect, unanswered,
		        score, time_spent_seconds, feedback, completed_at)
		ON CONFLICT (id) DO NOTHING`,
		ids, users, tests, titles, correct, incorrect, unanswered, scores, spent, feedback, completedAt)
	if err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	b := &pgx.Batch{}
	for _, rec := range batch {
		b.Queue(`UPDATE results SET answers = $1 WHERE id = $2 AND cardinality(answers) = 0`,
			fromAnswers(rec.Answers), rec.ID)
		b.Queue(`INSERT INTO activities (user_id, activity_type, title, description, created_at)
		         SELECT $1, $2, $3, $4, $5
		         WHERE NOT EXISTS (SELECT 1 FROM activities WHERE user_id = $1 AND description = $4)`,
			rec.UserID, model.ActivityTypeTest, activityTitle(rec), activityDescription(rec), rec.CompletedAt)
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("insert answers and activities: %w", err)
	}
	return tx.Commit(ctx)
}

// Insert stores a single result with its activity entry.
func (r *ResultRepository) Insert(ctx context.Context, rec model.ResultRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO results (`+resultColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.UserID, rec.TestID, rec.TestTitle, rec.CorrectCount, rec.IncorrectCount,
		rec.UnansweredCount, rec.ScorePercent, rec.TimeSpentSeconds, fromAnswers(rec.Answers),
		string(rec.Feedback), rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO activities (user_id, activity_type, title, description, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			rec.UserID, model.ActivityTypeTest, activityTitle(rec), activityDescription(rec), rec.CompletedAt); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListActivities returns a user's recent activity feed.
func (r *ResultRepository) ListActivities(ctx context.Context, userID, limit int) ([]model.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, activity_type, title, description, created_at
		 FROM activities WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func activityTitle(rec model.ResultRecord) string {
	return "Test submitted: " + rec.TestTitle
}

// activityDescription carries the result ID so a retried batch does not
// duplicate the entry.
func activityDescription(rec model.ResultRecord) string {
	return fmt.Sprintf("Scored %d%% (%d/%d correct). Result %s", rec.ScorePercent,
		rec.CorrectCount, rec.TotalQuestions(), rec.ID)
}

func fromAnswers(slots []model.Answer) []int {
	out := make([]int, len(slots))
	for i, a := range slots {
		out[i] = int(a)
	}
	return out
}

func toAnswers(raw []int) []model.Answer {
	out := make([]model.Answer, len(raw))
	for i, v := range raw {
		if v < 0 {
			out[i] = model.Unanswered
			continue
		}
		out[i] = model.Answer(v)
	}
	return out
}
