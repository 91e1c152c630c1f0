package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
)

func TestGenerateQuiz_MultipleChoice(t *testing.T) {
	gen := &fakeGenerator{respond: reply("```json\n" + `[{"question":"2+2?","options":["3","4","5","6"],"correct_answer":1,"explanation":"arithmetic"}]` + "\n```")}
	svc := NewStudyService(gen, 1, nil)

	questions, err := svc.GenerateQuiz(context.Background(), models.GenerateQuizRequest{Content: "math", Count: 1, Type: models.ExamTypeTest})
	require.NoError(t, err)
	require.Len(t, questions, 1)

	q := questions[0]
	assert.Equal(t, "2+2?", q.Question)
	assert.Equal(t, []string{"3", "4", "5", "6"}, q.Options)
	assert.Equal(t, 1, q.CorrectAnswer)
	assert.Equal(t, -1, q.SelectedOptionIndex)
	assert.False(t, q.IsEvaluated)

	req := gen.lastRequest(t)
	assert.Equal(t, ollama.Document, req.Category)
	assert.Contains(t, req.Prompt, "multiple choice")
}

func TestGenerateQuiz_OpenEndedDropsOptions(t *testing.T) {
	gen := &fakeGenerator{respond: reply(`[{"question":"Explain entropy.","model_answer":"A measure of disorder.","options":["x"]}]`)}
	svc := NewStudyService(gen, 1, nil)

	questions, err := svc.GenerateQuiz(context.Background(), models.GenerateQuizRequest{Content: "physics", Type: "Classical"})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Nil(t, questions[0].Options)
	assert.Equal(t, "A measure of disorder.", questions[0].ModelAnswer)
	assert.Contains(t, gen.lastRequest(t).Prompt, "Create 5 open-ended")
}

func TestGenerateQuiz_PlaceholderOnBadOutput(t *testing.T) {
	tests := []struct {
		name     string
		examType string
		response string
	}{
		{"prose", models.ExamTypeTest, "I cannot do that."},
		{"empty array", models.ExamTypeTest, "[]"},
		{"open ended prose", models.ExamTypeClassical, "sorry"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewStudyService(&fakeGenerator{respond: reply(tc.response)}, 1, nil)

			questions, err := svc.GenerateQuiz(context.Background(), models.GenerateQuizRequest{Content: "c", Type: tc.examType})
			require.NoError(t, err)
			require.Len(t, questions, 1)
			if tc.examType == models.ExamTypeTest {
				assert.Equal(t, []string{"Error", "Try Again", "Check Settings", "Cancel"}, questions[0].Options)
			} else {
				assert.NotEmpty(t, questions[0].ModelAnswer)
			}
		})
	}
}

func TestGenerateQuiz_TransportError(t *testing.T) {
	gen := &fakeGenerator{respond: func(ollama.Request) (string, error) { return "", ollama.ErrUnavailable }}
	svc := NewStudyService(gen, 1, nil)

	_, err := svc.GenerateQuiz(context.Background(), models.GenerateQuizRequest{Content: "c"})
	assert.ErrorIs(t, err, ollama.ErrUnavailable)
}

func TestEvaluateAnswer(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		response  string
		wantScore float64
		feedback  string
	}{
		{"graded", "because of gravity", "```json\n{\"score\": 80, \"feedback\": \"Good\"}\n```", 80, "Good"},
		{"clamped", "x", `{"score": 140, "feedback": "Great"}`, 100, "Great"},
		{"unreadable", "x", "Nice answer!", 0, "could not be evaluated"},
		{"empty answer", "  ", "unused", 0, "No answer"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{respond: reply(tc.response)}
			svc := NewStudyService(gen, 1, nil)

			eval := svc.EvaluateAnswer(context.Background(), "Why do apples fall?", tc.answer, "Gravity")
			assert.Equal(t, tc.wantScore, eval.Score)
			assert.Contains(t, eval.Feedback, tc.feedback)
		})
	}
}

func TestGradeExam_MultipleChoice(t *testing.T) {
	gen := &fakeGenerator{respond: reply(`{"score": 5, "overall_assessment": "Decent", "weak_topics": ["Fractions"], "recommendations": ["Practice"]}`)}
	svc := NewStudyService(gen, 1, nil)

	sub := models.ExamSubmission{
		Type: models.ExamTypeTest,
		Questions: []models.QuizQuestion{
			{Question: "a", Options: []string{"1", "2"}, CorrectAnswer: 0, SelectedOptionIndex: 0},
			{Question: "b", Options: []string{"1", "2"}, CorrectAnswer: 1, SelectedOptionIndex: 0},
			{Question: "c", Options: []string{"1", "2"}, CorrectAnswer: 1, SelectedOptionIndex: -1},
			{Question: "d", Options: []string{"1", "2"}, CorrectAnswer: 1, SelectedOptionIndex: 1},
		},
	}

	result := svc.GradeExam(context.Background(), sub)
	require.Len(t, result.Questions, 4)
	assert.Equal(t, []float64{100, 0, 0, 100}, []float64{
		result.Questions[0].Score, result.Questions[1].Score, result.Questions[2].Score, result.Questions[3].Score,
	})
	for _, q := range result.Questions {
		assert.True(t, q.IsEvaluated)
	}

	assert.Equal(t, 50.0, result.Report.Score)
	assert.Equal(t, "Decent", result.Report.OverallAssessment)
	assert.Equal(t, []string{"Fractions"}, result.Report.WeakTopics)

	// submission is not mutated
	assert.False(t, sub.Questions[0].IsEvaluated)
}

func TestGradeExam_UnansweredQuestionScoresZero(t *testing.T) {
	gen := &fakeGenerator{respond: reply(`{"overall_assessment": "Start again"}`)}
	svc := NewStudyService(gen, 1, nil)

	var sub models.ExamSubmission
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Test","questions":[
		{"question":"Q1","options":["a","b","c","d"],"correct_answer":0},
		{"question":"Q2","options":["a","b","c","d"],"correct_answer":0,"selected_option_index":0}
	]}`), &sub))
	require.Equal(t, -1, sub.Questions[0].SelectedOptionIndex)

	result := svc.GradeExam(context.Background(), sub)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, 0.0, result.Questions[0].Score)
	assert.Equal(t, 100.0, result.Questions[1].Score)
	assert.Equal(t, 50.0, result.Report.Score)
}

func TestGradeExam_OpenEnded(t *testing.T) {
	gen := &fakeGenerator{respond: func(req ollama.Request) (string, error) {
		if strings.Contains(req.Prompt, "Grade a student's answer") {
			return `{"score": 60, "feedback": "Partly right"}`, nil
		}
		return "not json", nil
	}}
	svc := NewStudyService(gen, 1, nil)

	result := svc.GradeExam(context.Background(), models.ExamSubmission{
		Type: models.ExamTypeClassical,
		Questions: []models.QuizQuestion{
			{Question: "q1", ModelAnswer: "m1", UserAnswerText: "answer"},
			{Question: "q2", ModelAnswer: "m2", Score: 90, IsEvaluated: true},
		},
	})

	assert.Equal(t, 60.0, result.Questions[0].Score)
	assert.Equal(t, "Partly right", result.Questions[0].Feedback)
	assert.Equal(t, 90.0, result.Questions[1].Score)

	// report falls back but keeps the computed score
	assert.Equal(t, 75.0, result.Report.Score)
	assert.Equal(t, []string{"Undetermined"}, result.Report.WeakTopics)
	assert.NotEmpty(t, result.Report.Recommendations)
}

func TestGenerateExamReport_TransportError(t *testing.T) {
	gen := &fakeGenerator{respond: func(ollama.Request) (string, error) { return "", ollama.ErrUnavailable }}
	svc := NewStudyService(gen, 1, nil)

	report := svc.GenerateExamReport(context.Background(), []models.QuizQuestion{{Score: 100}, {Score: 0}})
	assert.Equal(t, 50.0, report.Score)
	assert.Contains(t, report.OverallAssessment, "score was computed")
}

func TestGenerateExamReport_NoQuestions(t *testing.T) {
	gen := &fakeGenerator{respond: reply(`{"score": 99, "overall_assessment": "ok"}`)}
	svc := NewStudyService(gen, 1, nil)

	report := svc.GenerateExamReport(context.Background(), nil)
	assert.Equal(t, 0.0, report.Score)
	assert.NotNil(t, report.WeakTopics)
	assert.NotNil(t, report.Recommendations)
}
