package ollama

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxLineBytes = 1 << 20

// GenerateStream starts a streaming generation. Fragments arrive on the first
// channel in order. It is closed when the server reports done, the body ends,
// or the stream fails; a failure is delivered on the second channel, which
// holds at most one value and is closed afterwards.
func (c *Client) GenerateStream(ctx context.Context, req Request) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(chunks)

		if err := c.stream(ctx, req, chunks); err != nil {
			errc <- err
		}
	}()

	return chunks, errc
}

func (c *Client) stream(ctx context.Context, req Request, out chan<- Chunk) error {
	body, err := c.buildRequest(req, true)
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		c.log.Warn("stream failed to start",
			zap.String("model", body.Model),
			zap.Stringer("category", req.Category),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			c.log.Debug("skipping malformed stream line", zap.ByteString("line", line))
			continue
		}

		parsed := gjson.ParseBytes(line)
		if msg := parsed.Get("error"); msg.Exists() {
			return fmt.Errorf("ollama stream error: %s", msg.String())
		}

		done := parsed.Get("done").Bool()
		if text := parsed.Get("response").String(); text != "" {
			select {
			case out <- Chunk{Text: text, Done: done}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if done {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: stream interrupted: %w", ErrUnavailable, err)
	}
	return nil
}

// Collect drains a stream and returns the concatenated text.
func Collect(chunks <-chan Chunk, errc <-chan error) (string, error) {
	var b strings.Builder
	for chunk := range chunks {
		b.WriteString(chunk.Text)
	}
	if err := <-errc; err != nil {
		return b.String(), err
	}
	return b.String(), nil
}

// IsModelNotFound reports whether err came from a 404 on the resolved model.
func IsModelNotFound(err error) bool {
	var nf *ModelNotFoundError
	return errors.As(err, &nf)
}
