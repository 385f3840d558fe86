package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"mockview/internal/interview/models"
	"mockview/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists interviews and answers in the mock_interview and
// user_answer tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, iv *models.Interview) error {
	questions, err := json.Marshal(iv.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mock_interview (mock_id, json_mock_resp, job_position, job_desc, job_experience, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, iv.MockID, string(questions), iv.JobPosition, iv.JobDesc, iv.JobExperience, iv.CreatedBy, iv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

const interviewColumns = `mock_id, json_mock_resp, job_position, job_desc, job_experience, created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*models.Interview, error) {
	var (
		iv        models.Interview
		questions []byte
	)
	if err := row.Scan(&iv.MockID, &questions, &iv.JobPosition, &iv.JobDesc, &iv.JobExperience, &iv.CreatedBy, &iv.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &iv.Questions); err != nil {
		return nil, fmt.Errorf("decode questions for %s: %w", iv.MockID, err)
	}
	return &iv, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, mockID string) (*models.Interview, error) {
	iv, err := scanInterview(s.db.QueryRowContext(ctx,
		`SELECT `+interviewColumns+` FROM mock_interview WHERE mock_id = $1`, mockID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find interview: %w", err)
	}
	return iv, nil
}

func (s *PostgresStore) ListByCreator(ctx context.Context, email string) ([]*models.Interview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM mock_interview WHERE created_by = $1 ORDER BY created_at DESC, mock_id`, email)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interview: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Append(ctx context.Context, a *models.Answer) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_answer (mock_id_ref, question, correct_ans, user_ans, feedback, rating, user_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, a.MockIDRef, a.Question, a.CorrectAns, a.UserAns, a.Feedback, a.Rating, a.UserEmail, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByInterview(ctx context.Context, mockID string) ([]models.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mock_id_ref, question, correct_ans, user_ans, feedback, rating, user_email, created_at
		FROM user_answer WHERE mock_id_ref = $1 ORDER BY id
	`, mockID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	out := []models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.MockIDRef, &a.Question, &a.CorrectAns, &a.UserAns, &a.Feedback, &a.Rating, &a.UserEmail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByInterviews counts answers for several interviews in one round trip.
func (s *PostgresStore) CountByInterviews(ctx context.Context, mockIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(mockIDs))
	if len(mockIDs) == 0 {
		return counts, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT mock_id_ref, COUNT(*) FROM user_answer
		WHERE mock_id_ref = ANY($1::text[])
		GROUP BY mock_id_ref
	`, pq.Array(mockIDs))
	if err != nil {
		return nil, fmt.Errorf("count answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan answer count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
