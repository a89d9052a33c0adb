package service

import (
	"context"
	"fmt"
	"log"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"
	"gradersmith/internal/domain/repository"
	"gradersmith/internal/judge"

	"github.com/google/uuid"
)

// Enqueuer hands a created submission to the evaluation worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, submissionID string) error
}

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	queue          Enqueuer
}

func NewSubmissionService(submissionRepo repository.SubmissionRepository, queue Enqueuer) *SubmissionService {
	return &SubmissionService{submissionRepo: submissionRepo, queue: queue}
}

type SubmitRequest struct {
	ProblemID  string `json:"problem_id"`
	Language   string `json:"language"`
	SourceCode string `json:"source_code"`
	UserID     string `json:"user_id"`
}

// Submit persists a Pending submission and enqueues it for evaluation.
// Exactly one row is created per call; if the enqueue fails the row is
// marked Error rather than silently dropped.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*model.Submission, error) {
	if req.ProblemID == "" || req.Language == "" || req.SourceCode == "" || req.UserID == "" {
		return nil, fmt.Errorf("problem_id, language, source_code and user_id are required: %w", common.ErrValidation)
	}
	if _, ok := judge.LanguageID(req.Language); !ok {
		return nil, fmt.Errorf("unknown language %q: %w", req.Language, common.ErrValidation)
	}

	submission := &model.Submission{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		ProblemID:     req.ProblemID,
		Language:      req.Language,
		SourceCode:    req.SourceCode,
		Status:        model.StatusPending,
		Judge0Results: []model.TestCaseResult{},
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	if err := s.queue.Enqueue(ctx, submission.ID); err != nil {
		if markErr := s.submissionRepo.UpdateVerdict(ctx, submission.ID, model.StatusError, nil); markErr != nil {
			log.Printf("ERROR: failed to mark submission %s as Error after enqueue failure: %v", submission.ID, markErr)
		}
		return nil, fmt.Errorf("failed to enqueue submission %s: %w", submission.ID, err)
	}

	log.Printf("Submission %s for problem %s enqueued.", submission.ID, submission.ProblemID)
	return submission, nil
}

// GetStatus is a pure read; (nil, nil) when the submission does not exist,
// so pollers can tell "gone" from "store broken".
func (s *SubmissionService) GetStatus(ctx context.Context, submissionID string) (*model.Submission, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submission id is required: %w", common.ErrValidation)
	}
	return s.submissionRepo.FindByID(ctx, submissionID)
}

func (s *SubmissionService) GetByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", common.ErrValidation)
	}
	return s.submissionRepo.FindByUser(ctx, userID)
}

// GetLatest returns the user's most recent submission for a problem,
// (nil, nil) when there is none.
func (s *SubmissionService) GetLatest(ctx context.Context, userID, problemID string) (*model.Submission, error) {
	if userID == "" || problemID == "" {
		return nil, fmt.Errorf("user id and problem id are required: %w", common.ErrValidation)
	}
	return s.submissionRepo.FindLatest(ctx, userID, problemID)
}
