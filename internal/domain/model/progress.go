package model

import "time"

// ProgressRecord marks a (user, problem) pair solved. Unique per pair:
// re-accepting refreshes CompletedAt but never creates a second row.
type ProgressRecord struct {
	UserID      string    `json:"user_id"`
	ProblemID   string    `json:"problem_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// LeaderboardRow is derived per query from progress records, never stored.
type LeaderboardRow struct {
	Rank           int    `json:"rank"`
	Username       string `json:"username"`
	ProblemsSolved int    `json:"problems_solved"`
}
