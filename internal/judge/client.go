// Package judge talks to a Judge0 instance: one submission per test case,
// polled until the execution leaves Judge0's queue. It never retries; the
// caller owns retry policy.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"
)

// Judge0 numeric language IDs for the languages the frontend offers.
var languageIDs = map[string]int{
	"C++":        54,
	"Java":       62,
	"JavaScript": 63,
	"Python":     71,
}

// LanguageID maps a display language name to its Judge0 ID.
func LanguageID(language string) (int, bool) {
	id, ok := languageIDs[language]
	return id, ok
}

// Limits are the per-run resource caps forwarded to Judge0.
type Limits struct {
	CPUTimeS  int
	MemoryKb  int
	WallTimeS int
}

type Client struct {
	baseURL string
	client  *http.Client

	// PollInterval and MaxPolls bound the wait for one test case; with the
	// defaults a case may sit in Judge0's queue for 30 seconds before the
	// evaluation counts as an upstream failure.
	PollInterval time.Duration
	MaxPolls     int
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 15 * time.Second},
		PollInterval: 500 * time.Millisecond,
		MaxPolls:     60,
	}
}

type createRequest struct {
	LanguageID    int    `json:"language_id"`
	SourceCode    string `json:"source_code"`
	Stdin         string `json:"stdin"`
	CPUTimeLimit  int    `json:"cpu_time_limit"`
	MemoryLimit   int    `json:"memory_limit"`
	WallTimeLimit int    `json:"wall_time_limit"`
}

type createResponse struct {
	Token string `json:"token"`
}

type resultResponse struct {
	Stdout *string `json:"stdout"`
	Stderr *string `json:"stderr"`
	Time   *string `json:"time"`   // seconds, as a decimal string
	Memory *int    `json:"memory"` // kilobytes
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Evaluate runs source against every test case in order and returns one
// normalized verdict per case. Any transport failure or malformed payload
// aborts the whole run with an ErrUpstream-wrapped error.
func (c *Client) Evaluate(ctx context.Context, languageID int, source string, cases []model.TestCase, limits Limits) ([]model.TestCaseResult, error) {
	results := make([]model.TestCaseResult, 0, len(cases))
	for i, tc := range cases {
		token, err := c.create(ctx, languageID, source, tc.Input, limits)
		if err != nil {
			return nil, fmt.Errorf("judge: dispatch case %d: %w", i+1, err)
		}
		res, err := c.await(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("judge: await case %d: %w", i+1, err)
		}
		results = append(results, normalize(res, tc.ExpectedOutput))
	}
	return results, nil
}

func (c *Client) create(ctx context.Context, languageID int, source, stdin string, limits Limits) (string, error) {
	body, err := json.Marshal(createRequest{
		LanguageID:    languageID,
		SourceCode:    source,
		Stdin:         stdin,
		CPUTimeLimit:  limits.CPUTimeS,
		MemoryLimit:   limits.MemoryKb,
		WallTimeLimit: limits.WallTimeS,
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	url := c.baseURL + "/submissions?base64_encoded=false&wait=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, common.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("status %d: %w", resp.StatusCode, common.ErrUpstream)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil || created.Token == "" {
		return "", fmt.Errorf("malformed create response: %w", common.ErrUpstream)
	}
	return created.Token, nil
}

// await polls the token until Judge0 reports a status past In Queue /
// Processing (status.id > 2).
func (c *Client) await(ctx context.Context, token string) (*resultResponse, error) {
	url := c.baseURL + "/submissions/" + token + "?base64_encoded=false&fields=*"
	for attempt := 0; attempt < c.MaxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, common.ErrUpstream)
		}

		var result resultResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("status %d: %w", resp.StatusCode, common.ErrUpstream)
		}
		if decodeErr != nil {
			return nil, fmt.Errorf("malformed result response: %w", common.ErrUpstream)
		}
		if result.Status.ID > 2 {
			return &result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
	return nil, fmt.Errorf("result poll for token %s timed out: %w", token, common.ErrUpstream)
}

// normalize maps a raw Judge0 result to a verdict. Judge0 "Accepted" only
// means the run finished cleanly; output still has to match.
func normalize(res *resultResponse, expectedOutput string) model.TestCaseResult {
	out := model.TestCaseResult{
		Stdout: deref(res.Stdout),
		Stderr: deref(res.Stderr),
	}
	if res.Time != nil {
		if secs, err := strconv.ParseFloat(*res.Time, 64); err == nil {
			out.ExecutionTimeMs = secs * 1000
		}
	}
	if res.Memory != nil {
		out.MemoryKb = *res.Memory
	}

	switch res.Status.ID {
	case 3:
		if strings.TrimSpace(out.Stdout) == strings.TrimSpace(expectedOutput) {
			out.Verdict = model.VerdictAccepted
		} else {
			out.Verdict = "Wrong Answer"
		}
	case 4:
		out.Verdict = "Wrong Answer"
	case 5:
		out.Verdict = "Time Limit Exceeded"
	case 6:
		out.Verdict = "Compilation Error"
	case 7:
		out.Verdict = "Runtime Error"
	case 8:
		out.Verdict = "Memory Limit Exceeded"
	default:
		out.Verdict = "Error"
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
