package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/Harshitk-cp/duo/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgDone    = "[DONE]"
	msgSuccess = "[SUCCESS]"
)

// ScenarioLister lists the scenario ids a study can be imported from.
type ScenarioLister interface {
	IDs() []string
}

type StudyHandler struct {
	svc       *service.StudyService
	scenarios ScenarioLister
	logger    *zap.Logger
}

func NewStudyHandler(svc *service.StudyService, scenarios ScenarioLister, logger *zap.Logger) *StudyHandler {
	return &StudyHandler{svc: svc, scenarios: scenarios, logger: logger}
}

type importRequest struct {
	ScenarioID string `json:"scenario_id"`
	InitialFD  string `json:"initial_fd"`
	FDComment  string `json:"fd_comment"`
}

type projectRequest struct {
	ProjectID string `json:"project_id"`
}

type feedbackRequest struct {
	ProjectID string       `json:"project_id"`
	Feedback  domain.Marks `json:"feedback"`
	UserH     string       `json:"current_user_h"`
	Comment   string       `json:"user_h_comment"`
}

// Feedback in both responses lists the current mark of every cell of the
// sample so the client can pre-fill rows it has marked before.
type sampleResponse struct {
	Sample   []service.SampleRow `json:"sample"`
	Feedback []domain.CellMark   `json:"feedback"`
	X        []domain.Pair       `json:"X"`
}

type feedbackResponse struct {
	Msg      string               `json:"msg"`
	Sample   []service.SampleRow  `json:"sample"`
	Feedback []domain.CellMark    `json:"feedback"`
	X        []domain.Pair        `json:"X"`
	Metrics  *domain.StudyMetrics `json:"metrics,omitempty"`
}

// fail maps service and domain errors to HTTP status codes. Unknown
// errors are 500 and their text is not exposed.
func (h *StudyHandler) fail(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrMalformedHypothesis),
		errors.Is(err, domain.ErrUnmatchedHypothesis),
		errors.Is(err, service.ErrInvalidFeedback),
		errors.Is(err, service.ErrScenarioRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, domain.ErrScenarioNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrStudyDone),
		errors.Is(err, service.ErrNoSample):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *StudyHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Import(r.Context(), service.ImportRequest{
		ScenarioID: req.ScenarioID,
		Hypothesis: req.InitialFD,
		Comment:    req.FDComment,
	})
	if err != nil {
		h.fail(w, err, "failed to import study")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"project_id": p.ID.String()})
}

func (h *StudyHandler) Sample(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := uuid.Parse(req.ProjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	p, sample, err := h.svc.Sample(r.Context(), id)
	if err != nil {
		h.fail(w, err, "failed to draw sample")
		return
	}

	writeJSON(w, http.StatusOK, sampleResponse{
		Sample:   sample.View(p.Scenario.Dirty),
		Feedback: p.Feedback.View(sample.Rows, p.Scenario.Dirty.Columns, p.Iteration),
		X:        sample.Pairs,
	})
}

func (h *StudyHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := uuid.Parse(req.ProjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	res, err := h.svc.Feedback(r.Context(), id, service.FeedbackRequest{
		Marks:      req.Feedback,
		Hypothesis: req.UserH,
		Comment:    req.Comment,
	})
	if err != nil {
		h.fail(w, err, "failed to record feedback")
		return
	}

	resp := feedbackResponse{
		Msg:      msgSuccess,
		Sample:   res.Rows,
		Feedback: res.Feedback,
		X:        res.Sample.Pairs,
		Metrics:  res.Metrics,
	}
	if res.Done {
		resp.Msg = msgDone
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StudyHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	metrics, done, err := h.svc.Metrics(r.Context(), id)
	if err != nil {
		h.fail(w, err, "failed to derive metrics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"done":    done,
		"metrics": metrics,
	})
}

func (h *StudyHandler) Beliefs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	level := service.DefaultCredibleLevel
	if s := r.URL.Query().Get("level"); s != "" {
		level, err = strconv.ParseFloat(s, 64)
		if err != nil || level <= 0 || level >= 1 {
			writeError(w, http.StatusBadRequest, "level must be in (0, 1)")
			return
		}
	}

	beliefs, err := h.svc.Beliefs(r.Context(), id, level)
	if err != nil {
		h.fail(w, err, "failed to summarize beliefs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"beliefs": beliefs})
}

func (h *StudyHandler) Scenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": h.scenarios.IDs()})
}
