package models

type VideoRequest struct {
	URL string `json:"url"`
}

type VideoTranscript struct {
	VideoID       string `json:"video_id"`
	URL           string `json:"url"`
	EmbedURL      string `json:"embed_url"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	DurationSec   int    `json:"duration_seconds"`
	Transcript    string `json:"transcript"`
	HasTranscript bool   `json:"has_transcript"`
}

type VideoQuestionRequest struct {
	Question   string `json:"question"`
	Transcript string `json:"transcript"`
}

type FrameRequest struct {
	ImageBase64 string `json:"image_base64"`
	Prompt      string `json:"prompt,omitempty"`
}
