package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"
	"gradersmith/internal/domain/repository"
	"gradersmith/internal/judge"

	"golang.org/x/sync/errgroup"
)

// AssetFetcher is the slice of the storage gateway the evaluator needs: a
// problem's judge configuration and its test cases.
type AssetFetcher interface {
	GetProblem(ctx context.Context, problemID string) (*model.Problem, error)
	GetTestCases(ctx context.Context, problemID string) ([]model.TestCase, error)
}

// JudgeRunner dispatches one evaluation to the execution service.
type JudgeRunner interface {
	Evaluate(ctx context.Context, languageID int, source string, cases []model.TestCase, limits judge.Limits) ([]model.TestCaseResult, error)
}

// Evaluator drives one submission from Pending to a terminal state:
// fetch assets, run the judge, persist the verdict, record progress.
type Evaluator struct {
	submissionRepo repository.SubmissionRepository
	progressRepo   repository.ProgressRepository
	assets         AssetFetcher
	runner         JudgeRunner

	limits      judge.Limits
	maxAttempts int
	retryBase   time.Duration
}

func NewEvaluator(
	submissionRepo repository.SubmissionRepository,
	progressRepo repository.ProgressRepository,
	assets AssetFetcher,
	runner JudgeRunner,
	limits judge.Limits,
	maxAttempts int,
	retryBase time.Duration,
) *Evaluator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Evaluator{
		submissionRepo: submissionRepo,
		progressRepo:   progressRepo,
		assets:         assets,
		runner:         runner,
		limits:         limits,
		maxAttempts:    maxAttempts,
		retryBase:      retryBase,
	}
}

// Evaluate runs one submission to a terminal state and returns the
// resolved verdict list. Terminal submissions are returned as-is, so a
// requeued id can never flip history.
func (e *Evaluator) Evaluate(ctx context.Context, submissionID string) ([]model.TestCaseResult, error) {
	sub, err := e.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("submission %s: %w", submissionID, common.ErrNotFound)
	}
	if sub.Status.IsTerminal() {
		return sub.Judge0Results, nil
	}

	languageID, ok := judge.LanguageID(sub.Language)
	if !ok {
		// Submit validated this; a miss here means the row predates the
		// current language map.
		return nil, e.fail(ctx, sub.ID, fmt.Errorf("unknown language %q: %w", sub.Language, common.ErrValidation))
	}

	if err := e.submissionRepo.SetStatus(ctx, sub.ID, model.StatusEvaluating); err != nil {
		return nil, err
	}

	problem, cases, err := e.fetchAssets(ctx, sub.ProblemID)
	if err != nil {
		return nil, e.fail(ctx, sub.ID, err)
	}
	if problem == nil || len(cases) == 0 {
		return nil, e.fail(ctx, sub.ID,
			fmt.Errorf("no judgeable assets for problem %s: %w", sub.ProblemID, common.ErrNotFound))
	}

	results, err := e.runWithRetry(ctx, languageID, sub.SourceCode, cases)
	if err != nil {
		return nil, e.fail(ctx, sub.ID, err)
	}

	status := model.StatusAccepted
	for _, res := range results {
		if res.Verdict != model.VerdictAccepted {
			status = model.StatusRejected
			break
		}
	}

	if err := e.submissionRepo.UpdateVerdict(ctx, sub.ID, status, results); err != nil {
		return nil, err
	}
	if status == model.StatusAccepted {
		if err := e.progressRepo.UpsertSolved(ctx, sub.UserID, sub.ProblemID); err != nil {
			// The verdict already stands; progress can be reconciled by a
			// later accepted submission.
			log.Printf("WARN: failed to record progress for user %s problem %s: %v", sub.UserID, sub.ProblemID, err)
		}
	}

	log.Printf("Submission %s finished with status %s (%d cases).", sub.ID, status, len(results))
	return results, nil
}

// fetchAssets pulls the problem config and its test cases concurrently.
// Either side failing aborts the evaluation; there is no partial grading.
func (e *Evaluator) fetchAssets(ctx context.Context, problemID string) (*model.Problem, []model.TestCase, error) {
	var (
		problem *model.Problem
		cases   []model.TestCase
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		problem, err = e.assets.GetProblem(gctx, problemID)
		return err
	})
	g.Go(func() error {
		var err error
		cases, err = e.assets.GetTestCases(gctx, problemID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return problem, cases, nil
}

// runWithRetry wraps the judge call with bounded jittered backoff. Only
// upstream failures are retried; after exhaustion the last error stands.
func (e *Evaluator) runWithRetry(ctx context.Context, languageID int, source string, cases []model.TestCase) ([]model.TestCaseResult, error) {
	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := e.retryBase<<(attempt-1) + time.Duration(rand.Int63n(int64(e.retryBase)+1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			log.Printf("Retrying judge call (attempt %d/%d).", attempt+1, e.maxAttempts)
		}
		results, err := e.runner.Evaluate(ctx, languageID, source, cases, e.limits)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if !errors.Is(err, common.ErrUpstream) {
			break
		}
	}
	return nil, lastErr
}

// fail marks the submission terminally Error and passes the cause through.
func (e *Evaluator) fail(ctx context.Context, submissionID string, cause error) error {
	if err := e.submissionRepo.UpdateVerdict(ctx, submissionID, model.StatusError, nil); err != nil {
		log.Printf("ERROR: failed to mark submission %s as Error: %v", submissionID, err)
	}
	return cause
}
