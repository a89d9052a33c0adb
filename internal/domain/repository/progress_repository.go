package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gradersmith/internal/common"
)

// LeaderboardCount is one user's distinct-solved tally before ranking;
// ordering and rank assignment happen in the progress service.
type LeaderboardCount struct {
	Username       string
	ProblemsSolved int
}

type ProgressRepository interface {
	// UpsertSolved records a (user, problem) pair as solved. Idempotent:
	// re-accepting refreshes completed_at on the existing row.
	UpsertSolved(ctx context.Context, userID, problemID string) error
	SolvedProblemIDs(ctx context.Context, userID string) ([]string, error)
	LeaderboardCounts(ctx context.Context) ([]LeaderboardCount, error)
}

type pgProgressRepository struct {
	db *sql.DB
}

func NewPgProgressRepository(db *sql.DB) ProgressRepository {
	return &pgProgressRepository{db: db}
}

func (r *pgProgressRepository) UpsertSolved(ctx context.Context, userID, problemID string) error {
	query := `INSERT INTO progress (user_id, problem_id, completed_at)
	          VALUES ($1, $2, CURRENT_TIMESTAMP)
	          ON CONFLICT (user_id, problem_id)
	          DO UPDATE SET completed_at = EXCLUDED.completed_at`
	if _, err := r.db.ExecContext(ctx, query, userID, problemID); err != nil {
		return fmt.Errorf("pgProgressRepository.UpsertSolved: %v: %w", err, common.ErrStorage)
	}
	return nil
}

func (r *pgProgressRepository) SolvedProblemIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT problem_id FROM progress WHERE user_id = $1 ORDER BY completed_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.SolvedProblemIDs query: %v: %w", err, common.ErrStorage)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.SolvedProblemIDs scan: %v: %w", err, common.ErrStorage)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.SolvedProblemIDs rows: %v: %w", err, common.ErrStorage)
	}
	return ids, nil
}

func (r *pgProgressRepository) LeaderboardCounts(ctx context.Context) ([]LeaderboardCount, error) {
	query := `SELECT u.username, COUNT(p.problem_id) AS problems_solved
	          FROM progress p
	          JOIN users u ON p.user_id = u.id
	          GROUP BY u.username`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.LeaderboardCounts query: %v: %w", err, common.ErrStorage)
	}
	defer rows.Close()

	counts := []LeaderboardCount{}
	for rows.Next() {
		var c LeaderboardCount
		if err := rows.Scan(&c.Username, &c.ProblemsSolved); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.LeaderboardCounts scan: %v: %w", err, common.ErrStorage)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.LeaderboardCounts rows: %v: %w", err, common.ErrStorage)
	}
	return counts, nil
}
