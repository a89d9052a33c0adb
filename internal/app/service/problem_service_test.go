package service

import (
	"context"
	"errors"
	"testing"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProblemRepo struct {
	rows      map[string]*model.Problem
	upsertErr error
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{rows: map[string]*model.Problem{}}
}

func (r *fakeProblemRepo) Upsert(_ context.Context, problem *model.Problem) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if _, exists := r.rows[problem.ID]; !exists {
		cp := *problem
		r.rows[problem.ID] = &cp
	}
	return nil
}

func (r *fakeProblemRepo) FindByID(_ context.Context, id string) (*model.Problem, error) {
	if p, ok := r.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeProblemRepo) List(_ context.Context) ([]model.Problem, error) {
	out := []model.Problem{}
	for _, p := range r.rows {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProblemRepo) ListUntagged(_ context.Context) ([]model.Problem, error) {
	out := []model.Problem{}
	for _, p := range r.rows {
		if !p.IsTagged {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProblemRepo) MarkTagged(_ context.Context, id string, tags []string) error {
	if p, ok := r.rows[id]; ok {
		p.IsTagged = true
		p.Tags = tags
	}
	return nil
}

type fakeBucket struct {
	problems map[string]*model.Problem
	uploads  []string
	listErr  error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{problems: map[string]*model.Problem{}}
}

func (b *fakeBucket) ListProblems(_ context.Context) ([]model.Problem, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	out := []model.Problem{}
	for _, p := range b.problems {
		out = append(out, *p)
	}
	return out, nil
}

func (b *fakeBucket) GetProblem(_ context.Context, problemID string) (*model.Problem, error) {
	if p, ok := b.problems[problemID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (b *fakeBucket) UploadConfig(_ context.Context, problemID string, cfg model.ProblemConfig) error {
	b.uploads = append(b.uploads, problemID+"/config.json")
	b.problems[problemID] = &model.Problem{
		ID: problemID, Name: cfg.Title, Description: cfg.Description,
		Difficulty: cfg.Difficulty, Tags: cfg.Tags,
	}
	return nil
}

func (b *fakeBucket) UploadStatement(_ context.Context, problemID, problemName, _ string) error {
	b.uploads = append(b.uploads, problemID+"/Problems/"+problemName+".md")
	return nil
}

func (b *fakeBucket) UploadSolution(_ context.Context, problemID, problemName, _ string) error {
	b.uploads = append(b.uploads, problemID+"/Solutions/"+problemName+".cpp")
	return nil
}

func TestListMirrorsBucketProblemsIntoRows(t *testing.T) {
	repo := newFakeProblemRepo()
	bucket := newFakeBucket()
	bucket.problems["two-sum"] = &model.Problem{ID: "two-sum", Name: "Two Sum"}
	svc := NewProblemService(repo, bucket)

	problems, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 1)

	row, err := repo.FindByID(context.Background(), "two-sum")
	require.NoError(t, err)
	require.NotNil(t, row, "listing mirrors each problem into a row")
}

func TestListSurvivesMirrorFailure(t *testing.T) {
	repo := newFakeProblemRepo()
	repo.upsertErr = errors.New("db down")
	bucket := newFakeBucket()
	bucket.problems["two-sum"] = &model.Problem{ID: "two-sum"}
	svc := NewProblemService(repo, bucket)

	problems, err := svc.List(context.Background())
	require.NoError(t, err, "a failed mirror must not fail the listing")
	assert.Len(t, problems, 1)
}

func TestGetMissingProblemIsNotFoundWithoutMirrorRow(t *testing.T) {
	repo := newFakeProblemRepo()
	svc := NewProblemService(repo, newFakeBucket())

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Empty(t, repo.rows, "a miss must not create a row")
}

func TestCreateUploadsAllThreeObjectsUnderSluggedID(t *testing.T) {
	repo := newFakeProblemRepo()
	bucket := newFakeBucket()
	svc := NewProblemService(repo, bucket)

	problem, err := svc.Create(context.Background(), CreateProblemRequest{
		Name:         "Two Sum II",
		Statement:    "# Two Sum II\nFind the pair.",
		SolutionCode: "int main() {}",
		Difficulty:   2,
		Tags:         []string{"arrays"},
	})
	require.NoError(t, err)

	assert.Equal(t, "two-sum-ii", problem.ID)
	assert.ElementsMatch(t, []string{
		"two-sum-ii/Problems/Two Sum II.md",
		"two-sum-ii/Solutions/Two Sum II.cpp",
		"two-sum-ii/config.json",
	}, bucket.uploads)

	row, err := repo.FindByID(context.Background(), "two-sum-ii")
	require.NoError(t, err)
	require.NotNil(t, row)
}

func TestCreateRejectsIncompleteRequests(t *testing.T) {
	svc := NewProblemService(newFakeProblemRepo(), newFakeBucket())

	_, err := svc.Create(context.Background(), CreateProblemRequest{Name: "Two Sum"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
}
