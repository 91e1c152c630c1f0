package models

import "time"

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	IsError   bool      `json:"is_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the payload sent to the chat endpoints.
type ChatRequest struct {
	Message  string `json:"message"`
	Context  string `json:"context,omitempty"`
	Category string `json:"category,omitempty"`
}

// ChatResponse is the reply from the AI chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}
