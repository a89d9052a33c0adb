package model

import "time"

type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "Pending"
	StatusEvaluating SubmissionStatus = "Evaluating"
	StatusAccepted   SubmissionStatus = "Accepted"
	StatusRejected   SubmissionStatus = "Rejected"
	StatusError      SubmissionStatus = "Error"
)

// VerdictAccepted is the per-test-case sentinel the judge client emits when
// a case passed; the overall status is Accepted iff every case carries it.
const VerdictAccepted = "Accepted"

// IsTerminal reports whether s is one of the three final states. Terminal
// submissions are read-only history and never transition again.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusError:
		return true
	}
	return false
}

type Submission struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	ProblemID     string           `json:"problem_id"`
	Language      string           `json:"language"`
	SourceCode    string           `json:"source_code"`
	Status        SubmissionStatus `json:"status"`
	Judge0Results []TestCaseResult `json:"judge0_results"`
	CreatedAt     time.Time        `json:"created_at"`
}

// TestCaseResult is one normalized per-case verdict, in test-case input
// order.
type TestCaseResult struct {
	Verdict         string  `json:"verdict"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	MemoryKb        int     `json:"memory_kb"`
	Stdout          string  `json:"stdout,omitempty"`
	Stderr          string  `json:"stderr,omitempty"`
}
