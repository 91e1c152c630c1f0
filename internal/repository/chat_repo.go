package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"studymate-backend/internal/models"
)

const (
	chatHistoryKey     = "chat:history"
	defaultHistorySize = 200
)

type ChatRepo struct {
	rdb     *redis.Client
	maxSize int64
}

func NewChatRepo(rdb *redis.Client, maxSize int) *ChatRepo {
	if maxSize <= 0 {
		maxSize = defaultHistorySize
	}
	return &ChatRepo{rdb: rdb, maxSize: int64(maxSize)}
}

// Append adds messages to the end of the history and trims the oldest ones.
func (r *ChatRepo) Append(ctx context.Context, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, chatHistoryKey, values...)
	pipe.LTrim(ctx, chatHistoryKey, -r.maxSize, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat history: %w", err)
	}
	return nil
}

// List returns the most recent messages, oldest first. limit <= 0 returns all.
func (r *ChatRepo) List(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	raw, err := r.rdb.LRange(ctx, chatHistoryKey, start, -1).Result()
	if err != nil {
		return nil, err
	}

	msgs := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m models.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (r *ChatRepo) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, chatHistoryKey).Err()
}
