package service

import (
	"context"
	"testing"

	"gradersmith/internal/domain/model"
	"gradersmith/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardOrdersBySolvedThenUsername(t *testing.T) {
	repo := newFakeProgressRepo()
	repo.counts = []repository.LeaderboardCount{
		{Username: "mallory", ProblemsSolved: 2},
		{Username: "alice", ProblemsSolved: 5},
		{Username: "bob", ProblemsSolved: 2},
		{Username: "carol", ProblemsSolved: 7},
	}
	svc := NewProgressService(repo)

	rows, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)

	expected := []model.LeaderboardRow{
		{Rank: 1, Username: "carol", ProblemsSolved: 7},
		{Rank: 2, Username: "alice", ProblemsSolved: 5},
		{Rank: 3, Username: "bob", ProblemsSolved: 2},
		{Rank: 4, Username: "mallory", ProblemsSolved: 2},
	}
	assert.Equal(t, expected, rows)
}

func TestLeaderboardEmptyIsEmptySlice(t *testing.T) {
	svc := NewProgressService(newFakeProgressRepo())

	rows, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestCompletedReflectsRecordedProgress(t *testing.T) {
	repo := newFakeProgressRepo()
	require.NoError(t, repo.UpsertSolved(context.Background(), "u1", "two-sum"))
	require.NoError(t, repo.UpsertSolved(context.Background(), "u1", "two-sum"))
	svc := NewProgressService(repo)

	ids, err := svc.Completed(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"two-sum"}, ids)
}
