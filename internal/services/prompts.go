package services

import (
	"fmt"
	"strings"

	"studymate-backend/internal/models"
)

func summaryPrompt(content string) string {
	return fmt.Sprintf(`Summarize the following study material for a student.
Keep the key definitions, arguments and conclusions. Use short paragraphs and bullet points where they help.

Text:
%s`, content)
}

func keywordsPrompt(content string) string {
	return fmt.Sprintf(`List the 10 most important keywords or key terms of the following text.
Return only the keywords separated by commas, with no numbering and no explanation.

Text:
%s`, content)
}

func mindMapPrompt(content string) string {
	return fmt.Sprintf(`Create a mind map of the following text in Mermaid "mindmap" syntax.
The root node is the main subject; branches are the main topics and leaves their key points.
Return only the Mermaid code.

Text:
%s`, content)
}

func explainTopicPrompt(topic string) string {
	return fmt.Sprintf("Using the document above, explain %s clearly and simply, with an example where possible.", topic)
}

func questionsPrompt(topic string, count int) string {
	return fmt.Sprintf(`Write %d study questions about the following topic that test understanding rather than memorization.
Number the questions.

Topic: %s`, count, topic)
}

func explainConceptPrompt(concept string) string {
	return fmt.Sprintf("Explain the concept %q as a patient tutor would: a short definition, an intuitive explanation and one concrete example.", concept)
}

func studyPlanPrompt(topics, contextText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a study plan for the following topics: %s\n", topics)
	if contextText != "" {
		fmt.Fprintf(&b, "\nStudy material excerpt:\n%s\n", contextText)
	}
	b.WriteString(`
Return ONLY a JSON array inside a ` + "```json" + ` code block, in this exact shape:
[{"topic": "topic name", "estimated_hours": 2.5}]`)
	return b.String()
}

func quizPrompt(req models.GenerateQuizRequest) string {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	if req.Type == models.ExamTypeTest {
		return fmt.Sprintf(`Create %d multiple choice questions of %s difficulty from the following text.
Each question has exactly 4 options and one correct answer.
Return ONLY a JSON array inside a `+"```json"+` code block, in this exact shape:
[{"question": "...", "options": ["A", "B", "C", "D"], "correct_answer": 0, "explanation": "why the answer is correct"}]
correct_answer is the zero-based index of the correct option.

Text:
%s`, req.Count, difficulty, req.Content)
	}

	return fmt.Sprintf(`Create %d open-ended exam questions of %s difficulty from the following text.
Return ONLY a JSON array inside a `+"```json"+` code block, in this exact shape:
[{"question": "...", "model_answer": "a complete reference answer"}]

Text:
%s`, req.Count, difficulty, req.Content)
}

func evaluationPrompt(question, answer, modelAnswer string) string {
	return fmt.Sprintf(`Grade a student's answer to an exam question.

Question: %s
Reference answer: %s
Student answer: %s

Give a score from 0 to 100 and short, constructive feedback.
Return ONLY a JSON object inside a `+"```json"+` code block, in this exact shape:
{"score": 75, "feedback": "..."}`, question, modelAnswer, answer)
}

func examReportPrompt(questions []models.QuizQuestion, score float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A student finished an exam with an average score of %.0f/100. Their answers:\n\n", score)
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		if len(q.Options) > 0 {
			selected := "(no answer)"
			if q.SelectedOptionIndex >= 0 && q.SelectedOptionIndex < len(q.Options) {
				selected = q.Options[q.SelectedOptionIndex]
			}
			correct := ""
			if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
				correct = q.Options[q.CorrectAnswer]
			}
			fmt.Fprintf(&b, "   Answer: %s | Correct: %s | Score: %.0f\n", selected, correct, q.Score)
		} else {
			fmt.Fprintf(&b, "   Answer: %s | Score: %.0f\n", q.UserAnswerText, q.Score)
		}
	}
	b.WriteString(`
Write an assessment of the student's performance, the topics they are weak in and what to study next.
Return ONLY a JSON object inside a ` + "```json" + ` code block, in this exact shape:
{"score": 0, "overall_assessment": "...", "weak_topics": ["..."], "recommendations": ["..."]}`)
	return b.String()
}

func videoSummaryPrompt() string {
	return "Summarize this video for a student: the main topic, the key points in order and the conclusion."
}

func videoContext(transcript string) string {
	return "Video Transcript:\n" + transcript
}

const defaultFramePrompt = "What do you see in this screenshot? Describe the content, any text and the visual elements in detail."
