package diagnosis

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type QuestionnaireRequest struct {
	Symptoms string `json:"symptoms"`
}

type AnalysisRequest struct {
	Symptoms string   `json:"symptoms"`
	Answers  []Answer `json:"answers"`
}

// Questionnaire handles stage 1.
func (h *Handler) Questionnaire(w http.ResponseWriter, r *http.Request) {
	var req QuestionnaireRequest
	if !h.decode(w, r, &req) {
		return
	}
	subjectID, _ := SubjectFrom(r.Context())

	q, err := h.svc.GenerateQuestionnaire(r.Context(), subjectID, req.Symptoms)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status, body := Ok(q)
	writeJSON(w, status, body)
}

// Analysis handles stage 2.
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !h.decode(w, r, &req) {
		return
	}
	subjectID, _ := SubjectFrom(r.Context())

	report, err := h.svc.Diagnose(r.Context(), subjectID, req.Symptoms, req.Answers)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status, body := Ok(report)
	writeJSON(w, status, body)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		status, body := FailWith(http.StatusBadRequest, "Invalid request body.")
		writeJSON(w, status, body)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := AsError(err); !ok {
		h.logger.Error("unexpected error",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	status, body := Fail(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/diagnosis", func(r chi.Router) {
		r.Use(RequireSubject)
		r.Post("/questionnaire", h.Questionnaire)
		r.Post("/analysis", h.Analysis)
	})
}
