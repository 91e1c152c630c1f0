package services

import (
	"context"
	"strings"

	"studymate-backend/internal/ollama"
)

const transcriptInputLimit = 15000

func (s *StudyService) SummarizeVideo(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrTranscriptUnavailable
	}
	return s.complete(ctx, ollama.Request{
		Prompt:   videoSummaryPrompt(),
		System:   videoContext(truncateRunes(transcript, transcriptInputLimit)),
		Category: ollama.Video,
	})
}

func (s *StudyService) AskVideo(ctx context.Context, question, transcript string) (string, error) {
	req := ollama.Request{Prompt: question, Category: ollama.Video}
	if strings.TrimSpace(transcript) != "" {
		req.System = videoContext(truncateRunes(transcript, transcriptInputLimit))
	}
	return s.complete(ctx, req)
}

// AnalyzeFrame describes a single captured video frame with the video model.
func (s *StudyService) AnalyzeFrame(ctx context.Context, imageBase64, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultFramePrompt
	}
	return s.complete(ctx, ollama.Request{
		Prompt:      prompt,
		ImageBase64: stripDataURL(imageBase64),
		Category:    ollama.Video,
	})
}

// stripDataURL removes a "data:image/png;base64," style prefix.
func stripDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}
