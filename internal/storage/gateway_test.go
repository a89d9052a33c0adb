package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bucketStub serves the two Supabase Storage endpoints the gateway uses:
// POST list per prefix and GET object downloads.
type bucketStub struct {
	listings map[string][]listEntry
	objects  map[string]string
}

func newBucketStub() *bucketStub {
	return &bucketStub{
		listings: map[string][]listEntry{},
		objects:  map[string]string{},
	}
}

func fileID(name string) *string { return &name }

func (b *bucketStub) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /storage/v1/object/list/problems", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prefix string `json:"prefix"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		entries, ok := b.listings[body.Prefix]
		if !ok {
			entries = []listEntry{}
		}
		_ = json.NewEncoder(w).Encode(entries)
	})
	mux.HandleFunc("GET /storage/v1/object/problems/{path...}", func(w http.ResponseWriter, r *http.Request) {
		content, ok := b.objects[r.PathValue("path")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(content))
	})
	return mux
}

func (b *bucketStub) addProblem(id string, cfg model.ProblemConfig) {
	raw, _ := json.Marshal(cfg)
	b.listings[""] = append(b.listings[""], listEntry{Name: id, ID: nil})
	b.objects[id+"/config.json"] = string(raw)
}

func newTestGateway(t *testing.T, stub *bucketStub) *Gateway {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	return NewGateway(srv.URL, "test-key", "problems")
}

func TestListProblemsSkipsPlaceholderFilesAndBrokenConfigs(t *testing.T) {
	stub := newBucketStub()
	stub.addProblem("two-sum", model.ProblemConfig{Title: "Two Sum", Difficulty: 1, Tags: []string{"arrays"}})
	stub.listings[""] = append(stub.listings[""],
		listEntry{Name: folderPlaceholder, ID: nil},
		listEntry{Name: "README.md", ID: fileID("abc-123")},
		listEntry{Name: "no-config", ID: nil},
		listEntry{Name: "bad-config", ID: nil},
	)
	stub.objects["bad-config/config.json"] = "{not json"

	problems, err := newTestGateway(t, stub).ListProblems(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "two-sum", problems[0].ID)
	assert.Equal(t, "Two Sum", problems[0].Name)
	assert.Equal(t, []string{"arrays"}, problems[0].Tags)
}

func TestGetProblemAppliesConfigDefaults(t *testing.T) {
	stub := newBucketStub()
	stub.addProblem("mystery", model.ProblemConfig{})

	p, err := newTestGateway(t, stub).GetProblem(context.Background(), "mystery")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "mystery", p.Name, "missing title falls back to the folder id")
	assert.Equal(t, "No description available.", p.Description)
	assert.Equal(t, []string{}, p.Tags)
}

func TestGetProblemMissingIsNilNil(t *testing.T) {
	p, err := newTestGateway(t, newBucketStub()).GetProblem(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetTestCasesPairsInputsWithOutputsInOrder(t *testing.T) {
	stub := newBucketStub()
	stub.listings["two-sum/TestCases/Inputs"] = []listEntry{
		{Name: "input2.txt", ID: fileID("i2")},
		{Name: "input1.txt", ID: fileID("i1")},
		{Name: "input3.txt", ID: fileID("i3")}, // output missing, dropped
		{Name: folderPlaceholder, ID: fileID("ph")},
	}
	stub.listings["two-sum/TestCases/Outputs"] = []listEntry{
		{Name: "output1.txt", ID: fileID("o1")},
		{Name: "output2.txt", ID: fileID("o2")},
	}
	stub.objects["two-sum/TestCases/Inputs/input1.txt"] = "1 2"
	stub.objects["two-sum/TestCases/Inputs/input2.txt"] = "3 4"
	stub.objects["two-sum/TestCases/Inputs/input3.txt"] = "5 6"
	stub.objects["two-sum/TestCases/Outputs/output1.txt"] = "3"
	stub.objects["two-sum/TestCases/Outputs/output2.txt"] = "7"

	cases, err := newTestGateway(t, stub).GetTestCases(context.Background(), "two-sum")
	require.NoError(t, err)

	expected := []model.TestCase{
		{Input: "1 2", ExpectedOutput: "3"},
		{Input: "3 4", ExpectedOutput: "7"},
	}
	assert.Equal(t, expected, cases, "cases come back sorted by input name")
}

func TestGetTestCasesEmptyFoldersYieldNoCases(t *testing.T) {
	cases, err := newTestGateway(t, newBucketStub()).GetTestCases(context.Background(), "two-sum")
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestListProblemsServerErrorIsStorageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bucket offline", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewGateway(srv.URL, "test-key", "problems").ListProblems(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStorage))
}
