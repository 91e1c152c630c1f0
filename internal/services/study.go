package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studymate-backend/internal/llmjson"
	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
)

const (
	summaryInputLimit  = 15000
	keywordInputLimit  = 10000
	mindMapInputLimit  = 10000
	planContextLimit   = 2000
	rateAcquireTimeout = 5 * time.Minute
)

// Generator is the part of the Ollama client the study operations need.
type Generator interface {
	Complete(ctx context.Context, req ollama.Request) (string, error)
	GenerateStream(ctx context.Context, req ollama.Request) (<-chan ollama.Chunk, <-chan error)
}

// ChatHistory records finished chat exchanges.
type ChatHistory interface {
	Append(ctx context.Context, msgs ...models.ChatMessage) error
}

type StudyService struct {
	gen      Generator
	history  ChatHistory
	log      *zap.Logger
	rateChan chan struct{} // Token bucket
}

func NewStudyService(gen Generator, concurrentReqs int, log *zap.Logger) *StudyService {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &StudyService{
		gen:      gen,
		log:      log,
		rateChan: rateChan,
	}
}

// WithHistory enables chat history recording. A nil history disables it.
func (s *StudyService) WithHistory(h ChatHistory) *StudyService {
	s.history = h
	return s
}

// acquireRate blocks until a generation slot is available
func (s *StudyService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(rateAcquireTimeout):
		return fmt.Errorf("timeout waiting for a generation slot")
	}
}

func (s *StudyService) releaseRate() {
	s.rateChan <- struct{}{}
}

func (s *StudyService) complete(ctx context.Context, req ollama.Request) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	return s.gen.Complete(ctx, req)
}

// Stream runs a streaming generation while holding a rate slot.
// The slot is released once the stream ends.
func (s *StudyService) Stream(ctx context.Context, req ollama.Request) (<-chan ollama.Chunk, <-chan error) {
	out := make(chan ollama.Chunk)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		if err := s.acquireRate(ctx); err != nil {
			errc <- err
			return
		}
		defer s.releaseRate()

		chunks, inner := s.gen.GenerateStream(ctx, req)
		for chunk := range chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				// drain so the producer can exit
				for range chunks {
				}
				errc <- ctx.Err()
				return
			}
		}
		if err := <-inner; err != nil {
			errc <- err
		}
	}()

	return out, errc
}

// Complete runs a single non-streaming generation while holding a rate slot.
func (s *StudyService) Complete(ctx context.Context, req ollama.Request) (string, error) {
	return s.complete(ctx, req)
}

// Ask runs a plain generation in the given category.
func (s *StudyService) Ask(ctx context.Context, prompt, contextText string, cat ollama.Category) (string, error) {
	return s.complete(ctx, ollama.Request{Prompt: prompt, System: contextText, Category: cat})
}

// ──── Document operations ────

func (s *StudyService) Summarize(ctx context.Context, content string) (string, error) {
	return s.complete(ctx, ollama.Request{
		Prompt:   summaryPrompt(truncateRunes(content, summaryInputLimit)),
		Category: ollama.Document,
	})
}

func (s *StudyService) ExtractKeywords(ctx context.Context, content string) ([]string, error) {
	raw, err := s.complete(ctx, ollama.Request{
		Prompt:   keywordsPrompt(truncateRunes(content, keywordInputLimit)),
		Category: ollama.Document,
	})
	if err != nil {
		return nil, err
	}
	return splitKeywords(raw), nil
}

var mermaidFence = regexp.MustCompile("(?s)```(?:mermaid)?\\s*(.*?)\\s*```")

func (s *StudyService) GenerateMindMap(ctx context.Context, content string) (string, error) {
	raw, err := s.complete(ctx, ollama.Request{
		Prompt:   mindMapPrompt(truncateRunes(content, mindMapInputLimit)),
		Category: ollama.Document,
	})
	if err != nil {
		return "", err
	}
	if m := mermaidFence.FindStringSubmatch(raw); len(m) > 1 {
		return m[1], nil
	}
	return strings.TrimSpace(raw), nil
}

// ExplainTopic explains a topic using the document as context.
func (s *StudyService) ExplainTopic(ctx context.Context, content, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		topic = "the main ideas of this document"
	}
	return s.complete(ctx, ollama.Request{
		Prompt:   explainTopicPrompt(topic),
		System:   truncateRunes(content, summaryInputLimit),
		Category: ollama.Document,
	})
}

// AnalyzeDocument runs summary, keywords and explanation concurrently.
// A failed branch carries a readable message instead of failing the batch.
func (s *StudyService) AnalyzeDocument(ctx context.Context, content string) (*models.DocumentAnalysis, error) {
	var result models.DocumentAnalysis
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.Summarize(gctx, content)
		result.Summary = textOrMessage(summary, err)
		return ctx.Err()
	})
	g.Go(func() error {
		keywords, err := s.ExtractKeywords(gctx, content)
		if err != nil {
			s.log.Warn("keyword extraction failed", zap.Error(err))
			keywords = []string{}
		}
		result.Keywords = keywords
		return ctx.Err()
	})
	g.Go(func() error {
		explanation, err := s.ExplainTopic(gctx, content, "")
		result.Explanation = textOrMessage(explanation, err)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

// ──── Chat operations ────

func (s *StudyService) GenerateQuestions(ctx context.Context, topic string, count int) (string, error) {
	if count <= 0 {
		count = 5
	}
	return s.complete(ctx, ollama.Request{
		Prompt:   questionsPrompt(topic, count),
		Category: ollama.Chat,
	})
}

func (s *StudyService) ExplainConcept(ctx context.Context, concept, contextText string) (string, error) {
	return s.complete(ctx, ollama.Request{
		Prompt:   explainConceptPrompt(concept),
		System:   contextText,
		Category: ollama.Chat,
	})
}

// StreamChat streams a chat reply. When history is enabled the finished
// exchange is recorded, including failures.
func (s *StudyService) StreamChat(ctx context.Context, message, contextText string) (<-chan ollama.Chunk, <-chan error) {
	chunks, errc := s.Stream(ctx, ollama.Request{Prompt: message, System: contextText, Category: ollama.Chat})
	if s.history == nil {
		return chunks, errc
	}

	out := make(chan ollama.Chunk)
	outErr := make(chan error, 1)
	asked := time.Now().UTC()

	go func() {
		defer close(out)
		defer close(outErr)

		var reply strings.Builder
		for chunk := range chunks {
			reply.WriteString(chunk.Text)
			select {
			case out <- chunk:
			case <-ctx.Done():
			}
		}
		err := <-errc

		answer := models.ChatMessage{Role: "assistant", Content: reply.String(), CreatedAt: time.Now().UTC()}
		if err != nil {
			answer.Content = ollama.Describe(err)
			answer.IsError = true
		}

		// record even when the request context is gone
		saveCtx, cancel := contextWithoutCancel(ctx)
		defer cancel()
		if herr := s.history.Append(saveCtx,
			models.ChatMessage{Role: "user", Content: message, CreatedAt: asked},
			answer,
		); herr != nil {
			s.log.Warn("failed to record chat history", zap.Error(herr))
		}

		if err != nil {
			outErr <- err
		}
	}()

	return out, outErr
}

// ──── Planning ────

func (s *StudyService) GenerateStudyPlan(ctx context.Context, topics, contextText string) ([]models.StudyPlanItem, error) {
	raw, err := s.complete(ctx, ollama.Request{
		Prompt:   studyPlanPrompt(topics, truncateRunes(contextText, planContextLimit)),
		Category: ollama.General,
	})
	if err != nil {
		return nil, err
	}

	plan, ok := llmjson.Parse[[]models.StudyPlanItem](raw)
	if !ok {
		s.log.Warn("study plan response was not valid JSON", zap.Int("chars", len(raw)))
		return []models.StudyPlanItem{}, nil
	}
	return plan, nil
}

func textOrMessage(text string, err error) string {
	if err != nil {
		return ollama.Describe(err)
	}
	return text
}

func splitKeywords(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		k := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(f), "-*•"))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func contextWithoutCancel(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}
