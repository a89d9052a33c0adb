package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"
)

// folderPlaceholder is the zero-byte object Supabase leaves in otherwise
// empty folders; it is never a problem.
const folderPlaceholder = ".emptyFolderPlaceholder"

// Gateway is a thin client for the Supabase Storage bucket holding problem
// folders: {id}/config.json, {id}/Problems/*, {id}/Solutions/*,
// {id}/TestCases/Inputs|Outputs.
type Gateway struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
}

func NewGateway(baseURL, apiKey, bucket string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type listEntry struct {
	Name string  `json:"name"`
	ID   *string `json:"id"` // null for folders
}

// ListProblems returns the bucket-backed problem summaries. Folders whose
// config.json is missing or unparseable are skipped, never failing the
// whole listing.
func (g *Gateway) ListProblems(ctx context.Context) ([]model.Problem, error) {
	entries, err := g.list(ctx, "")
	if err != nil {
		return nil, err
	}

	problems := []model.Problem{}
	for _, entry := range entries {
		if entry.ID != nil || entry.Name == folderPlaceholder {
			continue
		}
		cfg, err := g.downloadConfig(ctx, entry.Name)
		if err != nil || cfg == nil {
			log.Printf("WARN: skipping problem folder %q: missing or invalid config.json", entry.Name)
			continue
		}
		problems = append(problems, problemFromConfig(entry.Name, cfg))
	}
	return problems, nil
}

// GetProblem loads one problem's config.json. Returns (nil, nil) when the
// object is absent so callers can 404 without treating it as a failure.
func (g *Gateway) GetProblem(ctx context.Context, problemID string) (*model.Problem, error) {
	cfg, err := g.downloadConfig(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}
	p := problemFromConfig(problemID, cfg)
	return &p, nil
}

// GetTestCases pairs {id}/TestCases/Inputs/inputN with Outputs/outputN and
// downloads both sides. A failed download of any file aborts the whole
// fetch: partial grading is worse than no grading.
func (g *Gateway) GetTestCases(ctx context.Context, problemID string) ([]model.TestCase, error) {
	prefix := problemID + "/TestCases"
	inputs, err := g.list(ctx, prefix+"/Inputs")
	if err != nil {
		return nil, err
	}
	outputs, err := g.list(ctx, prefix+"/Outputs")
	if err != nil {
		return nil, err
	}

	outputByKey := make(map[string]string, len(outputs))
	for _, out := range outputs {
		if out.Name == folderPlaceholder {
			continue
		}
		outputByKey[strings.Replace(out.Name, "output", "", 1)] = out.Name
	}

	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Name < inputs[j].Name })

	cases := []model.TestCase{}
	for _, in := range inputs {
		if in.Name == folderPlaceholder {
			continue
		}
		outName, ok := outputByKey[strings.Replace(in.Name, "input", "", 1)]
		if !ok {
			continue
		}
		input, err := g.download(ctx, prefix+"/Inputs/"+in.Name)
		if err != nil {
			return nil, err
		}
		expected, err := g.download(ctx, prefix+"/Outputs/"+outName)
		if err != nil {
			return nil, err
		}
		if input == nil || expected == nil {
			return nil, fmt.Errorf("test case file vanished for problem %s: %w", problemID, common.ErrStorage)
		}
		cases = append(cases, model.TestCase{
			Input:          string(input),
			ExpectedOutput: string(expected),
		})
	}
	return cases, nil
}

func (g *Gateway) UploadConfig(ctx context.Context, problemID string, cfg model.ProblemConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("storage.UploadConfig marshal: %w", err)
	}
	return g.upload(ctx, problemID+"/config.json", body, "application/json")
}

func (g *Gateway) UploadStatement(ctx context.Context, problemID, problemName, markdown string) error {
	return g.upload(ctx, problemID+"/Problems/"+problemName+".md", []byte(markdown), "text/markdown")
}

func (g *Gateway) UploadSolution(ctx context.Context, problemID, problemName, source string) error {
	return g.upload(ctx, problemID+"/Solutions/"+problemName+".cpp", []byte(source), "text/plain")
}

func (g *Gateway) downloadConfig(ctx context.Context, problemID string) (*model.ProblemConfig, error) {
	raw, err := g.download(ctx, problemID+"/config.json")
	if err != nil || raw == nil {
		return nil, err
	}
	var cfg model.ProblemConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config.json for problem %s: %v: %w", problemID, err, common.ErrStorage)
	}
	return &cfg, nil
}

func (g *Gateway) list(ctx context.Context, prefix string) ([]listEntry, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"prefix": prefix,
		"limit":  1000,
		"offset": 0,
	})
	if err != nil {
		return nil, fmt.Errorf("storage.list marshal: %w", err)
	}

	url := g.baseURL + "/storage/v1/object/list/" + g.bucket
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("storage.list request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage.list %q: %v: %w", prefix, err, common.ErrStorage)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storage.list %q: status %d: %w", prefix, resp.StatusCode, common.ErrStorage)
	}

	var entries []listEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("storage.list %q decode: %v: %w", prefix, err, common.ErrStorage)
	}
	return entries, nil
}

// download returns (nil, nil) for a missing object.
func (g *Gateway) download(ctx context.Context, path string) ([]byte, error) {
	url := g.baseURL + "/storage/v1/object/" + g.bucket + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("storage.download request: %w", err)
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage.download %q: %v: %w", path, err, common.ErrStorage)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storage.download %q: status %d: %w", path, resp.StatusCode, common.ErrStorage)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storage.download %q read: %v: %w", path, err, common.ErrStorage)
	}
	return data, nil
}

func (g *Gateway) upload(ctx context.Context, path string, body []byte, contentType string) error {
	url := g.baseURL + "/storage/v1/object/" + g.bucket + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("storage.upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true") // idempotent overwrite, not versioned
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("storage.upload %q: %v: %w", path, err, common.ErrStorage)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("storage.upload %q: status %d: %w", path, resp.StatusCode, common.ErrStorage)
	}
	return nil
}

func (g *Gateway) authorize(req *http.Request) {
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
		req.Header.Set("apikey", g.apiKey)
	}
}

func problemFromConfig(problemID string, cfg *model.ProblemConfig) model.Problem {
	p := model.Problem{
		ID:          problemID,
		Name:        cfg.Title,
		Description: cfg.Description,
		Difficulty:  cfg.Difficulty,
		Tags:        cfg.Tags,
	}
	if p.Name == "" {
		p.Name = problemID
	}
	if p.Description == "" {
		p.Description = "No description available."
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}
