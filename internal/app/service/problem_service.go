package service

import (
	"context"
	"fmt"
	"log"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"
	"gradersmith/internal/domain/repository"

	"github.com/gosimple/slug"
)

// ProblemBucket is the slice of the storage gateway the problem service
// needs.
type ProblemBucket interface {
	ListProblems(ctx context.Context) ([]model.Problem, error)
	GetProblem(ctx context.Context, problemID string) (*model.Problem, error)
	UploadConfig(ctx context.Context, problemID string, cfg model.ProblemConfig) error
	UploadStatement(ctx context.Context, problemID, problemName, markdown string) error
	UploadSolution(ctx context.Context, problemID, problemName, source string) error
}

type ProblemService struct {
	problemRepo repository.ProblemRepository
	bucket      ProblemBucket
}

func NewProblemService(problemRepo repository.ProblemRepository, bucket ProblemBucket) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, bucket: bucket}
}

// List reads problem folders from the bucket and mirrors each into a
// relational row so tag and progress queries can join on it. Mirroring is
// best-effort: a failed upsert degrades the row, not the listing.
func (s *ProblemService) List(ctx context.Context) ([]model.Problem, error) {
	problems, err := s.bucket.ListProblems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems from storage: %w", err)
	}
	for i := range problems {
		if err := s.problemRepo.Upsert(ctx, &problems[i]); err != nil {
			log.Printf("WARN: failed to mirror problem %s: %v", problems[i].ID, err)
		}
	}
	return problems, nil
}

// Get reads one problem's config from the bucket. A miss is a plain
// not-found; no mirror row is created for identifiers that do not exist.
func (s *ProblemService) Get(ctx context.Context, problemID string) (*model.Problem, error) {
	if problemID == "" {
		return nil, fmt.Errorf("problem id is required: %w", common.ErrValidation)
	}
	problem, err := s.bucket.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, common.ErrNotFound
	}
	return problem, nil
}

func (s *ProblemService) ListUntagged(ctx context.Context) ([]model.Problem, error) {
	return s.problemRepo.ListUntagged(ctx)
}

type CreateProblemRequest struct {
	Name         string   `json:"name"`
	Statement    string   `json:"statement"` // markdown
	SolutionCode string   `json:"solution_code"`
	Difficulty   int      `json:"difficulty"`
	Tags         []string `json:"tags"`
}

// Create uploads a new problem folder (config, statement, solution) and
// mirrors the row. The problem id is the slugged name, so re-uploading the
// same problem overwrites it in place.
func (s *ProblemService) Create(ctx context.Context, req CreateProblemRequest) (*model.Problem, error) {
	if req.Name == "" || req.Statement == "" || req.SolutionCode == "" {
		return nil, fmt.Errorf("name, statement and solution_code are required: %w", common.ErrValidation)
	}

	problemID := slug.Make(req.Name)
	cfg := model.ProblemConfig{
		Title:       req.Name,
		Description: req.Statement,
		Difficulty:  req.Difficulty,
		Tags:        req.Tags,
	}

	if err := s.bucket.UploadStatement(ctx, problemID, req.Name, req.Statement); err != nil {
		return nil, fmt.Errorf("failed to upload statement: %w", err)
	}
	if err := s.bucket.UploadSolution(ctx, problemID, req.Name, req.SolutionCode); err != nil {
		return nil, fmt.Errorf("failed to upload solution: %w", err)
	}
	if err := s.bucket.UploadConfig(ctx, problemID, cfg); err != nil {
		return nil, fmt.Errorf("failed to upload config: %w", err)
	}

	problem := &model.Problem{
		ID:         problemID,
		Name:       req.Name,
		Difficulty: req.Difficulty,
		Tags:       req.Tags,
	}
	if problem.Tags == nil {
		problem.Tags = []string{}
	}
	if err := s.problemRepo.Upsert(ctx, problem); err != nil {
		return nil, fmt.Errorf("failed to mirror problem row: %w", err)
	}
	return problem, nil
}
