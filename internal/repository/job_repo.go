package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studymate-backend/internal/models"
)

var ErrNotFound = errors.New("not found")

const jobTTL = 24 * time.Hour

type JobRepo struct {
	rdb *redis.Client
}

func NewJobRepo(rdb *redis.Client) *JobRepo {
	return &JobRepo{rdb: rdb}
}

func jobKey(id uuid.UUID) string {
	return "job:" + id.String()
}

// QueueName is the Redis list a job type is pushed to.
func QueueName(jobType string) string {
	return "queue:" + jobType
}

// UpdatesChannel is the pub/sub channel carrying progress for one job.
func UpdatesChannel(id uuid.UUID) string {
	return "job_updates:" + id.String()
}

// Create stores a pending job record and pushes it onto its queue.
func (r *JobRepo) Create(ctx context.Context, j *models.Job) error {
	j.ID = uuid.New()
	j.Status = models.JobPending
	j.CreatedAt = time.Now().UTC()
	if len(j.ConfigJSON) == 0 {
		j.ConfigJSON = json.RawMessage("{}")
	}

	data, err := json.Marshal(j)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(j.ID), data, jobTTL)
	pipe.LPush(ctx, QueueName(j.Type), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	data, err := r.rdb.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var j models.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("corrupt job record %s: %w", id, err)
	}
	return &j, nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.update(ctx, id, func(j *models.Job) {
		j.Status = status
	})
}

func (r *JobRepo) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	return r.update(ctx, id, func(j *models.Job) {
		now := time.Now().UTC()
		j.Status = models.JobCompleted
		j.ResultJSON = result
		j.CompletedAt = &now
	})
}

func (r *JobRepo) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.update(ctx, id, func(j *models.Job) {
		now := time.Now().UTC()
		j.Status = models.JobFailed
		j.ErrorMessage = &errMsg
		j.CompletedAt = &now
	})
}

// update applies fn under an optimistic WATCH transaction.
func (r *JobRepo) update(ctx context.Context, id uuid.UUID, fn func(*models.Job)) error {
	key := jobKey(id)
	return r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var j models.Job
		if err := json.Unmarshal(data, &j); err != nil {
			return fmt.Errorf("corrupt job record %s: %w", id, err)
		}
		fn(&j)

		updated, err := json.Marshal(&j)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, jobTTL)
			return nil
		})
		return err
	}, key)
}

// Publish sends a progress message to the job's update channel.
func (r *JobRepo) Publish(ctx context.Context, id uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, UpdatesChannel(id), data).Err()
}
