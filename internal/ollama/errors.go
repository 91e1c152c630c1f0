package ollama

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps every transport-level failure talking to Ollama.
	ErrUnavailable = errors.New("ollama service unavailable")
	ErrEmptyPrompt = errors.New("prompt must not be empty")
)

// ModelNotFoundError is returned when Ollama answers 404 for the resolved model.
type ModelNotFoundError struct {
	Model string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("Error: model '%s' was not found. Open a terminal and run 'ollama pull %s'.", e.Model, e.Model)
}

// StatusError is any other non-2xx answer from Ollama.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error: Ollama API did not respond (%s)", e.Status)
}

// Describe turns a generation error into the message shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var notFound *ModelNotFoundError
	if errors.As(err, &notFound) {
		return notFound.Error()
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Error()
	}

	return "Error: " + err.Error()
}
