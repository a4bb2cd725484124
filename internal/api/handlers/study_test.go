package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/Harshitk-cp/duo/internal/scenario"
	"github.com/Harshitk-cp/duo/internal/service"
	"github.com/Harshitk-cp/duo/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const toyCSV = `A,B,C,D
a1,b1,c1,d1
a1,b1,c1,d1
a1,b2,c2,d2
a2,b3,c2,d3
a2,b3,c3,d4
a3,b4,c3,d4
a3,b4,c4,d5
a3,b4,c4,d5
`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dirty, err := scenario.ReadCSV(strings.NewReader(toyCSV))
	require.NoError(t, err)
	sc, err := scenario.BuildFromData(scenario.Config{
		ID:           "toy",
		DirtyPath:    "toy.csv",
		TargetFD:     "(A) => B",
		Alternatives: []string{"(C) => D"},
		SampleSize:   6,
		Primitives:   []string{"(A) => B", "(C) => D"},
	}, dirty, nil)
	require.NoError(t, err)

	logger := zap.NewNop()
	scenarios := scenario.NewRegistry(logger)
	scenarios.Register(sc)
	svc := service.NewStudyService(store.NewMemoryProjectStore(scenarios), scenarios, service.NewSampler(9), service.DefaultStudyConfig(), logger)
	h := NewStudyHandler(svc, scenarios, logger)

	r := chi.NewRouter()
	r.Get("/scenarios", h.Scenarios)
	r.Post("/import", h.Import)
	r.Post("/sample", h.Sample)
	r.Post("/feedback", h.Feedback)
	r.Get("/projects/{id}/metrics", h.Metrics)
	r.Get("/projects/{id}/beliefs", h.Beliefs)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v))
}

func importProject(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/import", map[string]string{"scenario_id": "toy", "initial_fd": "(A) => B"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var resp map[string]string
	decode(t, rr, &resp)
	return resp["project_id"]
}

func TestImport(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"stated hypothesis", map[string]string{"scenario_id": "toy", "initial_fd": "(A) => B"}, http.StatusCreated},
		{"not sure", map[string]string{"scenario_id": "toy", "initial_fd": "Not Sure"}, http.StatusCreated},
		{"bad json", "{", http.StatusBadRequest},
		{"no scenario", map[string]string{}, http.StatusBadRequest},
		{"unknown scenario", map[string]string{"scenario_id": "nope"}, http.StatusNotFound},
		{"unmatched hypothesis", map[string]string{"scenario_id": "toy", "initial_fd": "(B) => A"}, http.StatusBadRequest},
		{"malformed hypothesis", map[string]string{"scenario_id": "toy", "initial_fd": "A -> B"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/import", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestSampleAndFeedback(t *testing.T) {
	h := newTestRouter(t)
	id := importProject(t, h)

	rr := do(t, h, http.MethodPost, "/sample", map[string]string{"project_id": id})
	require.Equal(t, http.StatusOK, rr.Code)
	var sample struct {
		Sample []service.SampleRow `json:"sample"`
		X      [][2]int            `json:"X"`
	}
	decode(t, rr, &sample)
	assert.Len(t, sample.Sample, 6)
	assert.ElementsMatch(t, [][2]int{{0, 2}, {1, 2}}, sample.X)
	for _, row := range sample.Sample {
		assert.Len(t, row.Values, 4)
	}

	feedback := map[string]any{
		"project_id":     id,
		"feedback":       map[string]map[string]bool{"2": {"B": true}},
		"current_user_h": "(A) => B",
	}
	rr = do(t, h, http.MethodPost, "/feedback", feedback)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Msg     string              `json:"msg"`
		Sample  []service.SampleRow `json:"sample"`
		Metrics map[string]any      `json:"metrics"`
	}
	decode(t, rr, &resp)
	assert.Equal(t, "[SUCCESS]", resp.Msg)
	assert.Len(t, resp.Sample, 6)
	assert.Contains(t, resp.Metrics, "windows")

	for i := 0; i < 2; i++ {
		rr = do(t, h, http.MethodPost, "/feedback", feedback)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	decode(t, rr, &resp)
	assert.Equal(t, "[DONE]", resp.Msg)

	rr = do(t, h, http.MethodPost, "/feedback", feedback)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, http.MethodGet, "/projects/"+id+"/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var metrics map[string]any
	decode(t, rr, &metrics)
	assert.Equal(t, true, metrics["done"])
}

func TestSampleCarriesMarks(t *testing.T) {
	h := newTestRouter(t)
	id := importProject(t, h)

	type cellsResponse struct {
		Sample   []service.SampleRow `json:"sample"`
		Feedback []domain.CellMark   `json:"feedback"`
	}

	rr := do(t, h, http.MethodPost, "/sample", map[string]string{"project_id": id})
	require.Equal(t, http.StatusOK, rr.Code)
	var first cellsResponse
	decode(t, rr, &first)
	require.Len(t, first.Feedback, len(first.Sample)*4)
	for _, c := range first.Feedback {
		assert.False(t, c.Marked, "row %d col %s", c.Row, c.Col)
	}
	assert.Equal(t, domain.CellMark{Row: first.Sample[0].ID, Col: "A"}, first.Feedback[0])

	rr = do(t, h, http.MethodPost, "/feedback", map[string]any{
		"project_id": id,
		"feedback":   map[string]map[string]bool{"2": {"B": true}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var next cellsResponse
	decode(t, rr, &next)
	require.Len(t, next.Feedback, len(next.Sample)*4)
	assert.Contains(t, next.Feedback, domain.CellMark{Row: 2, Col: "B", Marked: true})
	assert.Contains(t, next.Feedback, domain.CellMark{Row: 2, Col: "D", Marked: false})

	// A repeated /sample returns the same carried-forward marks.
	rr = do(t, h, http.MethodPost, "/sample", map[string]string{"project_id": id})
	require.Equal(t, http.StatusOK, rr.Code)
	var again cellsResponse
	decode(t, rr, &again)
	assert.Equal(t, next.Feedback, again.Feedback)
}

func TestFeedbackErrors(t *testing.T) {
	h := newTestRouter(t)
	id := importProject(t, h)

	rr := do(t, h, http.MethodPost, "/feedback", map[string]any{"project_id": id})
	assert.Equal(t, http.StatusConflict, rr.Code, "feedback before any sample")

	rr = do(t, h, http.MethodPost, "/sample", map[string]string{"project_id": id})
	require.Equal(t, http.StatusOK, rr.Code)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"bad json", "[", http.StatusBadRequest},
		{"bad id", map[string]any{"project_id": "x"}, http.StatusBadRequest},
		{"unknown project", map[string]any{"project_id": uuid.NewString()}, http.StatusNotFound},
		{"unknown column", map[string]any{"project_id": id, "feedback": map[string]map[string]bool{"2": {"Q": true}}}, http.StatusBadRequest},
		{"unmatched hypothesis", map[string]any{"project_id": id, "current_user_h": "(D) => A"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/feedback", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp map[string]string
			decode(t, rr, &resp)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestBeliefs(t *testing.T) {
	h := newTestRouter(t)
	id := importProject(t, h)

	rr := do(t, h, http.MethodGet, "/projects/"+id+"/beliefs?level=0.8", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Beliefs []service.BeliefSummary `json:"beliefs"`
	}
	decode(t, rr, &resp)
	require.Len(t, resp.Beliefs, 3)
	assert.Equal(t, "(A) => B", resp.Beliefs[0].FD)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"default level", "/projects/" + id + "/beliefs", http.StatusOK},
		{"level too high", "/projects/" + id + "/beliefs?level=1", http.StatusBadRequest},
		{"level not a number", "/projects/" + id + "/beliefs?level=wide", http.StatusBadRequest},
		{"bad id", "/projects/nope/beliefs", http.StatusBadRequest},
		{"unknown project", "/projects/" + uuid.NewString() + "/beliefs", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, do(t, h, http.MethodGet, tt.path, nil).Code)
		})
	}
}

func TestScenarios(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodGet, "/scenarios", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string][]string
	decode(t, rr, &resp)
	assert.Equal(t, []string{"toy"}, resp["scenarios"])
}
