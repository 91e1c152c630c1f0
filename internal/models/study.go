package models

type DocumentRequest struct {
	Content string `json:"content"`
	Topic   string `json:"topic,omitempty"`
}

type DocumentAnalysis struct {
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords"`
	Explanation string   `json:"explanation"`
}

type ConceptRequest struct {
	Concept string `json:"concept"`
	Context string `json:"context,omitempty"`
}

type QuestionsRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type StudyPlanRequest struct {
	Topics  string `json:"topics"`
	Context string `json:"context,omitempty"`
}

type StudyPlanItem struct {
	Topic          string  `json:"topic"`
	EstimatedHours float64 `json:"estimated_hours"`
}

type TextResponse struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}
