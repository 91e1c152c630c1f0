package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobDocumentAnalysis = "document-analysis"
	JobQuizGeneration   = "quiz-generation"
	JobExamReport       = "exam-report"

	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobTypes lists every queue the worker pool consumes.
var JobTypes = []string{JobDocumentAnalysis, JobQuizGeneration, JobExamReport}

type Job struct {
	ID           uuid.UUID       `json:"id"`
	Type         string          `json:"type"`
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"`
	ResultJSON   json.RawMessage `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

type CreateJobRequest struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	JobID    uuid.UUID `json:"job_id"`
	Step     int       `json:"step"`
	StepName string    `json:"step_name"`
}

type PartialContent struct {
	Chunk           string `json:"chunk"`
	TotalChunksSent int    `json:"total_chunks_sent"`
}

type CompletedEvent struct {
	JobID      uuid.UUID `json:"job_id,omitempty"`
	ResultType string    `json:"result_type"`
	Reply      string    `json:"reply,omitempty"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id,omitempty"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
