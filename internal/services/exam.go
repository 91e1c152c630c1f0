package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"studymate-backend/internal/llmjson"
	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
)

const (
	defaultQuizCount = 5
	maxQuizCount     = 30
	quizInputLimit   = 15000
)

var placeholderOptions = []string{"Error", "Try Again", "Check Settings", "Cancel"}

// GenerateQuiz produces exam questions from study material. Unparseable or
// empty model output yields a single placeholder question.
func (s *StudyService) GenerateQuiz(ctx context.Context, req models.GenerateQuizRequest) ([]models.QuizQuestion, error) {
	if req.Count <= 0 {
		req.Count = defaultQuizCount
	}
	if req.Count > maxQuizCount {
		req.Count = maxQuizCount
	}
	if req.Type != models.ExamTypeTest {
		req.Type = models.ExamTypeClassical
	}
	req.Content = truncateRunes(req.Content, quizInputLimit)

	raw, err := s.complete(ctx, ollama.Request{Prompt: quizPrompt(req), Category: ollama.Document})
	if err != nil {
		return nil, err
	}

	questions, ok := llmjson.Parse[[]models.QuizQuestion](raw)
	if !ok || len(questions) == 0 {
		s.log.Warn("quiz response was not usable", zap.String("type", req.Type), zap.Int("chars", len(raw)))
		return []models.QuizQuestion{placeholderQuestion(req.Type)}, nil
	}

	for i := range questions {
		resetAnswerState(&questions[i])
		if req.Type != models.ExamTypeTest {
			questions[i].Options = nil
		}
	}
	return questions, nil
}

func placeholderQuestion(examType string) models.QuizQuestion {
	q := models.QuizQuestion{
		Question:    "The questions could not be generated. Check that Ollama is running and the document model is installed, then try again.",
		Explanation: "The model response could not be read as questions.",
	}
	if examType == models.ExamTypeTest {
		q.Options = append([]string(nil), placeholderOptions...)
	} else {
		q.ModelAnswer = "No reference answer is available."
	}
	resetAnswerState(&q)
	return q
}

func resetAnswerState(q *models.QuizQuestion) {
	q.SelectedOptionIndex = -1
	q.UserAnswerText = ""
	q.Score = 0
	q.Feedback = ""
	q.IsEvaluated = false
}

// EvaluateAnswer grades an open-ended answer. The fallback evaluation has score 0.
func (s *StudyService) EvaluateAnswer(ctx context.Context, question, answer, modelAnswer string) models.AnswerEvaluation {
	if strings.TrimSpace(answer) == "" {
		return models.AnswerEvaluation{Score: 0, Feedback: "No answer was given."}
	}

	raw, err := s.complete(ctx, ollama.Request{
		Prompt:   evaluationPrompt(question, answer, modelAnswer),
		Category: ollama.General,
	})
	if err != nil {
		return models.AnswerEvaluation{Score: 0, Feedback: "The answer could not be evaluated: " + ollama.Describe(err)}
	}

	eval, ok := llmjson.Parse[models.AnswerEvaluation](raw)
	if !ok {
		return models.AnswerEvaluation{Score: 0, Feedback: "The answer could not be evaluated because the model response was not readable."}
	}
	eval.Score = clampScore(eval.Score)
	return eval
}

// GradeExam scores every question and builds the report.
// Multiple choice questions score 100 or 0; open-ended ones are graded by the model
// unless they were already evaluated.
func (s *StudyService) GradeExam(ctx context.Context, sub models.ExamSubmission) models.ExamResult {
	questions := append([]models.QuizQuestion(nil), sub.Questions...)

	for i := range questions {
		q := &questions[i]
		if sub.Type == models.ExamTypeTest || len(q.Options) > 0 {
			q.Score = 0
			if q.SelectedOptionIndex >= 0 && q.SelectedOptionIndex == q.CorrectAnswer {
				q.Score = 100
			}
			q.IsEvaluated = true
			continue
		}
		if q.IsEvaluated {
			continue
		}
		eval := s.EvaluateAnswer(ctx, q.Question, q.UserAnswerText, q.ModelAnswer)
		q.Score = eval.Score
		q.Feedback = eval.Feedback
		q.IsEvaluated = true
	}

	return models.ExamResult{
		Questions: questions,
		Report:    s.GenerateExamReport(ctx, questions),
	}
}

// GenerateExamReport asks the model for an assessment. The score is always the
// computed average, whatever the model returns.
func (s *StudyService) GenerateExamReport(ctx context.Context, questions []models.QuizQuestion) models.ExamReport {
	score := averageScore(questions)

	raw, err := s.complete(ctx, ollama.Request{
		Prompt:   examReportPrompt(questions, score),
		Category: ollama.General,
	})
	if err != nil {
		s.log.Warn("exam report generation failed", zap.Error(err))
		return fallbackReport(score)
	}

	report, ok := llmjson.Parse[models.ExamReport](raw)
	if !ok {
		return fallbackReport(score)
	}
	report.Score = score
	if report.WeakTopics == nil {
		report.WeakTopics = []string{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}
	return report
}

func fallbackReport(score float64) models.ExamReport {
	return models.ExamReport{
		Score:             score,
		OverallAssessment: "A detailed report could not be created, but your score was computed.",
		WeakTopics:        []string{"Undetermined"},
		Recommendations:   []string{"Review the topics of the questions you missed."},
	}
}

func averageScore(questions []models.QuizQuestion) float64 {
	if len(questions) == 0 {
		return 0
	}
	var total float64
	for _, q := range questions {
		total += q.Score
	}
	return total / float64(len(questions))
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
