package handlers

import (
	"net/http"

	"studymate-backend/internal/models"
	"studymate-backend/internal/services"
)

type ExamHandler struct {
	study *services.StudyService
}

func NewExamHandler(study *services.StudyService) *ExamHandler {
	return &ExamHandler{study: study}
}

func (h *ExamHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"content": req.Content}) {
		return
	}
	if req.Count < 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"count": "must not be negative"}, r))
		return
	}

	questions, err := h.study.GenerateQuiz(r.Context(), req)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (h *ExamHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluateAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"question": req.Question}) {
		return
	}

	writeJSON(w, http.StatusOK, h.study.EvaluateAnswer(r.Context(), req.Question, req.UserAnswer, req.ModelAnswer))
}

// Report grades a finished exam and returns the graded questions with the report.
func (h *ExamHandler) Report(w http.ResponseWriter, r *http.Request) {
	var sub models.ExamSubmission
	if !decodeBody(w, r, &sub) {
		return
	}
	if len(sub.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"questions": "is required"}, r))
		return
	}

	writeJSON(w, http.StatusOK, h.study.GradeExam(r.Context(), sub))
}
