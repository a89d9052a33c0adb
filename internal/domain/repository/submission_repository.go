package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	FindByUser(ctx context.Context, userID string) ([]model.Submission, error)
	FindLatest(ctx context.Context, userID, problemID string) (*model.Submission, error)
	// SetStatus moves a non-terminal submission to status; terminal rows are
	// read-only history and the update silently skips them.
	SetStatus(ctx context.Context, id string, status model.SubmissionStatus) error
	// UpdateVerdict writes the terminal status plus the ordered per-case
	// results, with the same non-terminal guard.
	UpdateVerdict(ctx context.Context, id string, status model.SubmissionStatus, results []model.TestCaseResult) error
}

const terminalGuard = `status NOT IN ('Accepted', 'Rejected', 'Error')`

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	results, err := json.Marshal(sub.Judge0Results)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Create marshal results: %w", err)
	}
	query := `INSERT INTO submissions (id, user_id, problem_id, language, source_code, status, judge0_results)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.ProblemID, sub.Language, sub.SourceCode, sub.Status, results)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Create: %v: %w", err, common.ErrStorage)
	}
	return nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT id, user_id, problem_id, language, source_code, status, judge0_results, created_at
	          FROM submissions WHERE id = $1`
	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByID: %v: %w", err, common.ErrStorage)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) FindByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	query := `SELECT id, user_id, problem_id, language, source_code, status, judge0_results, created_at
	          FROM submissions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.FindByUser query: %v: %w", err, common.ErrStorage)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.FindByUser scan: %v: %w", err, common.ErrStorage)
		}
		subs = append(subs, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.FindByUser rows: %v: %w", err, common.ErrStorage)
	}
	return subs, nil
}

func (r *pgSubmissionRepository) FindLatest(ctx context.Context, userID, problemID string) (*model.Submission, error) {
	query := `SELECT id, user_id, problem_id, language, source_code, status, judge0_results, created_at
	          FROM submissions WHERE user_id = $1 AND problem_id = $2
	          ORDER BY created_at DESC LIMIT 1`
	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, userID, problemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindLatest: %v: %w", err, common.ErrStorage)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) SetStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	query := `UPDATE submissions SET status = $1 WHERE id = $2 AND ` + terminalGuard
	if _, err := r.db.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("pgSubmissionRepository.SetStatus: %v: %w", err, common.ErrStorage)
	}
	return nil
}

func (r *pgSubmissionRepository) UpdateVerdict(ctx context.Context, id string, status model.SubmissionStatus, results []model.TestCaseResult) error {
	encoded, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateVerdict marshal: %w", err)
	}
	query := `UPDATE submissions SET status = $1, judge0_results = $2 WHERE id = $3 AND ` + terminalGuard
	if _, err := r.db.ExecContext(ctx, query, status, encoded, id); err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateVerdict: %v: %w", err, common.ErrStorage)
	}
	return nil
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	var (
		sub     model.Submission
		results []byte
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.ProblemID, &sub.Language,
		&sub.SourceCode, &sub.Status, &results, &sub.CreatedAt); err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &sub.Judge0Results); err != nil {
			return nil, err
		}
	}
	if sub.Judge0Results == nil {
		sub.Judge0Results = []model.TestCaseResult{}
	}
	return &sub, nil
}
