package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// buildRequest resolves the model for req.Category and produces the wire body.
// Non-streaming calls fold the context into the prompt; streaming calls send it as system.
func (c *Client) buildRequest(req Request, stream bool) (generateRequest, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return generateRequest{}, ErrEmptyPrompt
	}

	body := generateRequest{
		Model:  c.resolver.ModelFor(req.Category),
		Prompt: req.Prompt,
		Stream: stream,
	}

	if req.System != "" {
		if stream {
			body.System = req.System
		} else {
			body.Prompt = fmt.Sprintf("Context: %s\n\nQuestion: %s", req.System, req.Prompt)
		}
	}
	if req.ImageBase64 != "" {
		body.Images = []string{req.ImageBase64}
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, body generateRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(generatePath), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if body.Stream {
		httpReq.Header.Set("Accept", "application/x-ndjson")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, &ModelNotFoundError{Model: body.Model}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// Complete runs a non-streaming generation and returns the response text verbatim.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	body, err := c.buildRequest(req, false)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.post(ctx, body)
	if err != nil {
		c.log.Warn("generation failed",
			zap.String("model", body.Model),
			zap.Stringer("category", req.Category),
			zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	c.log.Debug("generation finished",
		zap.String("model", body.Model),
		zap.Stringer("category", req.Category),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(out.Response)))

	return out.Response, nil
}

// Generate is Complete with every failure converted into a readable message.
func (c *Client) Generate(ctx context.Context, req Request) string {
	text, err := c.Complete(ctx, req)
	if err != nil {
		return Describe(err)
	}
	return text
}
