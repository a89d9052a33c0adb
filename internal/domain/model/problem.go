package model

import "time"

// Problem is the relational mirror of a problem folder in the storage
// bucket. The bucket is the source of truth; rows exist so listings and
// tag queries do not hit storage.
type Problem struct {
	ID          string    `json:"problem_id"`
	Name        string    `json:"problem_name"`
	Description string    `json:"description,omitempty"`
	Difficulty  int       `json:"difficulty"`
	Tags        []string  `json:"tags"`
	IsTagged    bool      `json:"is_tagged"`
	Embedding   []float64 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProblemConfig is the parsed shape of a problem's config.json in the
// bucket.
type ProblemConfig struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  int      `json:"difficulty"`
	Tags        []string `json:"tags"`
}

// TestCase is materialized from the bucket for the duration of one
// evaluation; it is never persisted.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}
