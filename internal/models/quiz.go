package models

import "encoding/json"

const (
	ExamTypeTest      = "Test"      // multiple choice, four options
	ExamTypeClassical = "Classical" // open ended, graded by the model
)

type GenerateQuizRequest struct {
	Content    string `json:"content"`
	Count      int    `json:"count"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	ModelAnswer   string   `json:"model_answer,omitempty"`

	// Filled in while the exam is taken.
	SelectedOptionIndex int     `json:"selected_option_index"`
	UserAnswerText      string  `json:"user_answer_text,omitempty"`
	Score               float64 `json:"score"`
	Feedback            string  `json:"feedback,omitempty"`
	IsEvaluated         bool    `json:"is_evaluated"`
}

// UnmarshalJSON leaves SelectedOptionIndex at -1 when the payload does not carry it,
// so an unanswered question is never graded as option 0.
func (q *QuizQuestion) UnmarshalJSON(data []byte) error {
	type plain QuizQuestion
	p := plain{SelectedOptionIndex: -1}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*q = QuizQuestion(p)
	return nil
}

type EvaluateAnswerRequest struct {
	Question    string `json:"question"`
	UserAnswer  string `json:"user_answer"`
	ModelAnswer string `json:"model_answer"`
}

type AnswerEvaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

type ExamSubmission struct {
	Type      string         `json:"type"`
	Questions []QuizQuestion `json:"questions"`
}

type ExamReport struct {
	Score             float64  `json:"score"`
	OverallAssessment string   `json:"overall_assessment"`
	WeakTopics        []string `json:"weak_topics"`
	Recommendations   []string `json:"recommendations"`
}

type ExamResult struct {
	Questions []QuizQuestion `json:"questions"`
	Report    ExamReport     `json:"report"`
}
