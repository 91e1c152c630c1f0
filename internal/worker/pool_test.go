package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
)

type fakeStudy struct {
	analyzeErr error
	gotQuiz    models.GenerateQuizRequest
}

func (f *fakeStudy) AnalyzeDocument(_ context.Context, content string) (*models.DocumentAnalysis, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &models.DocumentAnalysis{Summary: "summary of " + content, Keywords: []string{"k"}}, nil
}

func (f *fakeStudy) GenerateQuiz(_ context.Context, req models.GenerateQuizRequest) ([]models.QuizQuestion, error) {
	f.gotQuiz = req
	return []models.QuizQuestion{{Question: "q", SelectedOptionIndex: -1}}, nil
}

func (f *fakeStudy) GradeExam(_ context.Context, sub models.ExamSubmission) models.ExamResult {
	return models.ExamResult{Questions: sub.Questions, Report: models.ExamReport{Score: 42}}
}

type fakeStore struct {
	mu        sync.Mutex
	statuses  []string
	result    json.RawMessage
	failure   string
	published []models.WSMessage
}

func (f *fakeStore) UpdateStatus(_ context.Context, _ uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) Complete(_ context.Context, _ uuid.UUID, result json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, models.JobCompleted)
	f.result = result
	return nil
}

func (f *fakeStore) Fail(_ context.Context, _ uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, models.JobFailed)
	f.failure = errMsg
	return nil
}

func (f *fakeStore) Publish(_ context.Context, _ uuid.UUID, msg models.WSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg)
	return nil
}

func newJob(jobType, config string) *models.Job {
	return &models.Job{ID: uuid.New(), Type: jobType, ConfigJSON: json.RawMessage(config)}
}

func TestHandle_DocumentAnalysis(t *testing.T) {
	store := &fakeStore{}
	pool := NewPool(nil, &fakeStudy{}, store, 1, nil)

	pool.Handle(context.Background(), newJob(models.JobDocumentAnalysis, `{"content":"cells"}`))

	assert.Equal(t, []string{models.JobProcessing, models.JobCompleted}, store.statuses)

	var analysis models.DocumentAnalysis
	require.NoError(t, json.Unmarshal(store.result, &analysis))
	assert.Equal(t, "summary of cells", analysis.Summary)

	require.Len(t, store.published, 2)
	assert.Equal(t, "status_update", store.published[0].Type)
	assert.Equal(t, "completed", store.published[1].Type)
	assert.Equal(t, "document_analysis", store.published[1].Payload.(models.CompletedEvent).ResultType)
}

func TestHandle_QuizGeneration(t *testing.T) {
	store := &fakeStore{}
	study := &fakeStudy{}
	pool := NewPool(nil, study, store, 1, nil)

	pool.Handle(context.Background(), newJob(models.JobQuizGeneration, `{"content":"math","count":3,"type":"Test"}`))

	assert.Equal(t, 3, study.gotQuiz.Count)
	assert.Equal(t, models.ExamTypeTest, study.gotQuiz.Type)
	assert.JSONEq(t, `[{"question":"q","options":null,"correct_answer":0,"selected_option_index":-1,"score":0,"is_evaluated":false}]`, string(store.result))
}

func TestHandle_ExamReport(t *testing.T) {
	store := &fakeStore{}
	pool := NewPool(nil, &fakeStudy{}, store, 1, nil)

	pool.Handle(context.Background(), newJob(models.JobExamReport, `{"type":"Test","questions":[{"question":"q"}]}`))

	var result models.ExamResult
	require.NoError(t, json.Unmarshal(store.result, &result))
	assert.Equal(t, 42.0, result.Report.Score)
}

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name     string
		job      *models.Job
		study    *fakeStudy
		code     string
		contains string
	}{
		{"unknown type", newJob("transcode", `{}`), &fakeStudy{}, "JOB_FAILED", "unknown job type"},
		{"bad config", newJob(models.JobQuizGeneration, `not json`), &fakeStudy{}, "JOB_FAILED", "invalid quiz-generation config"},
		{"empty document", newJob(models.JobDocumentAnalysis, `{"content":"  "}`), &fakeStudy{}, "JOB_FAILED", "empty"},
		{"empty exam", newJob(models.JobExamReport, `{"questions":[]}`), &fakeStudy{}, "JOB_FAILED", "no questions"},
		{
			"missing model",
			newJob(models.JobDocumentAnalysis, `{"content":"x"}`),
			&fakeStudy{analyzeErr: &ollama.ModelNotFoundError{Model: "doc-model"}},
			"MODEL_NOT_FOUND",
			"ollama pull doc-model",
		},
		{
			"ollama down",
			newJob(models.JobDocumentAnalysis, `{"content":"x"}`),
			&fakeStudy{analyzeErr: ollama.ErrUnavailable},
			"OLLAMA_UNAVAILABLE",
			"service unavailable",
		},
		{
			"ollama timed out",
			newJob(models.JobDocumentAnalysis, `{"content":"x"}`),
			&fakeStudy{analyzeErr: fmt.Errorf("%w: %w", ollama.ErrUnavailable, context.DeadlineExceeded)},
			"TIMEOUT",
			"deadline exceeded",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			pool := NewPool(nil, tc.study, store, 1, nil)

			pool.Handle(context.Background(), tc.job)

			assert.Equal(t, models.JobFailed, store.statuses[len(store.statuses)-1])
			assert.Contains(t, store.failure, tc.contains)

			last := store.published[len(store.published)-1]
			assert.Equal(t, "error", last.Type)
			assert.Equal(t, tc.code, last.Payload.(models.ErrorEvent).ErrorCode)
		})
	}
}

func TestResultAndStepNames(t *testing.T) {
	for _, jobType := range models.JobTypes {
		assert.NotEqual(t, "unknown", resultType(jobType))
		assert.NotEqual(t, "Processing", stepName(jobType))
	}
}
