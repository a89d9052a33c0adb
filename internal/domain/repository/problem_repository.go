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

type ProblemRepository interface {
	// Upsert mirrors a bucket problem into a row; an existing row is left
	// untouched so asynchronous tagging is not clobbered by re-listing.
	Upsert(ctx context.Context, problem *model.Problem) error
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	List(ctx context.Context) ([]model.Problem, error)
	ListUntagged(ctx context.Context) ([]model.Problem, error)
	MarkTagged(ctx context.Context, id string, tags []string) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) Upsert(ctx context.Context, p *model.Problem) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Upsert marshal tags: %w", err)
	}
	query := `INSERT INTO problems (problem_id, problem_name, difficulty, tags, is_tagged, embedding)
	          VALUES ($1, $2, $3, $4, $5, NULL)
	          ON CONFLICT (problem_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Difficulty, tags, p.IsTagged); err != nil {
		return fmt.Errorf("pgProblemRepository.Upsert: %v: %w", err, common.ErrStorage)
	}
	return nil
}

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT problem_id, problem_name, difficulty, tags, is_tagged, created_at
	          FROM problems WHERE problem_id = $1`
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgProblemRepository.FindByID: %v: %w", err, common.ErrStorage)
	}
	return p, nil
}

func (r *pgProblemRepository) List(ctx context.Context) ([]model.Problem, error) {
	query := `SELECT problem_id, problem_name, difficulty, tags, is_tagged, created_at
	          FROM problems ORDER BY problem_id ASC`
	return r.list(ctx, query)
}

func (r *pgProblemRepository) ListUntagged(ctx context.Context) ([]model.Problem, error) {
	query := `SELECT problem_id, problem_name, difficulty, tags, is_tagged, created_at
	          FROM problems WHERE is_tagged = FALSE ORDER BY problem_id ASC`
	return r.list(ctx, query)
}

func (r *pgProblemRepository) MarkTagged(ctx context.Context, id string, tags []string) error {
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.MarkTagged marshal tags: %w", err)
	}
	query := `UPDATE problems SET tags = $1, is_tagged = TRUE WHERE problem_id = $2`
	if _, err := r.db.ExecContext(ctx, query, encoded, id); err != nil {
		return fmt.Errorf("pgProblemRepository.MarkTagged: %v: %w", err, common.ErrStorage)
	}
	return nil
}

func (r *pgProblemRepository) list(ctx context.Context, query string) ([]model.Problem, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.list query: %v: %w", err, common.ErrStorage)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("pgProblemRepository.list scan: %v: %w", err, common.ErrStorage)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.list rows: %v: %w", err, common.ErrStorage)
	}
	return problems, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProblem(row rowScanner) (*model.Problem, error) {
	var (
		p    model.Problem
		tags []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Difficulty, &tags, &p.IsTagged, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return nil, err
		}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}
