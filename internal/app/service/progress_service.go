package service

import (
	"context"
	"fmt"
	"sort"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"
	"gradersmith/internal/domain/repository"
)

type ProgressService struct {
	progressRepo repository.ProgressRepository
}

func NewProgressService(progressRepo repository.ProgressRepository) *ProgressService {
	return &ProgressService{progressRepo: progressRepo}
}

// Completed returns the problem ids the user has solved.
func (s *ProgressService) Completed(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", common.ErrValidation)
	}
	return s.progressRepo.SolvedProblemIDs(ctx, userID)
}

// Leaderboard ranks users by distinct problems solved, descending, with
// ties broken by username ascending. Recomputed per query, never cached.
func (s *ProgressService) Leaderboard(ctx context.Context) ([]model.LeaderboardRow, error) {
	counts, err := s.progressRepo.LeaderboardCounts(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].ProblemsSolved != counts[j].ProblemsSolved {
			return counts[i].ProblemsSolved > counts[j].ProblemsSolved
		}
		return counts[i].Username < counts[j].Username
	})

	rows := make([]model.LeaderboardRow, 0, len(counts))
	for i, c := range counts {
		rows = append(rows, model.LeaderboardRow{
			Rank:           i + 1,
			Username:       c.Username,
			ProblemsSolved: c.ProblemsSolved,
		})
	}
	return rows, nil
}
