package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
	"studymate-backend/internal/repository"
)

const (
	popTimeout  = 5 * time.Second
	lockTimeout = 15 * time.Minute
)

// Study is the set of long-running operations jobs can run.
type Study interface {
	AnalyzeDocument(ctx context.Context, content string) (*models.DocumentAnalysis, error)
	GenerateQuiz(ctx context.Context, req models.GenerateQuizRequest) ([]models.QuizQuestion, error)
	GradeExam(ctx context.Context, sub models.ExamSubmission) models.ExamResult
}

// JobStore persists job state and relays progress.
type JobStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	Fail(ctx context.Context, id uuid.UUID, errMsg string) error
	Publish(ctx context.Context, id uuid.UUID, msg models.WSMessage) error
}

type Pool struct {
	redis       *redis.Client
	study       Study
	jobs        JobStore
	log         *zap.Logger
	workerCount int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(redisClient *redis.Client, study Study, jobs JobStore, workerCount int, log *zap.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		redis:       redisClient,
		study:       study,
		jobs:        jobs,
		log:         log,
		workerCount: workerCount,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	queues := make([]string, 0, len(models.JobTypes))
	for _, t := range models.JobTypes {
		queues = append(queues, repository.QueueName(t))
	}

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i, queues)
	}

	p.log.Info("started worker goroutines", zap.Int("count", p.workerCount), zap.Strings("queues", queues))
}

// Stop cancels in-flight jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int, queues []string) {
	defer p.wg.Done()
	log := p.log.With(zap.Int("worker", id))

	for {
		if ctx.Err() != nil {
			log.Debug("worker shutting down")
			return
		}

		result, err := p.redis.BLPop(ctx, popTimeout, queues...).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn("queue read failed", zap.Error(err))
				sleep(ctx, time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Warn("failed to parse job", zap.Error(err))
			continue
		}

		lockKey := "job_lock:" + job.ID.String()
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTimeout).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		p.Handle(ctx, &job)

		p.redis.Del(context.WithoutCancel(ctx), lockKey)
	}
}

// Handle runs one job and records its outcome.
func (p *Pool) Handle(ctx context.Context, job *models.Job) {
	log := p.log.With(zap.Stringer("job_id", job.ID), zap.String("type", job.Type))
	log.Info("processing job")
	start := time.Now()

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobProcessing); err != nil {
		log.Warn("failed to mark job processing", zap.Error(err))
	}
	p.publish(ctx, job.ID, models.WSMessage{
		Type:    "status_update",
		Payload: models.StatusUpdate{JobID: job.ID, Step: 1, StepName: stepName(job.Type)},
	})

	result, err := p.process(ctx, job)

	// outcome is recorded even if the pool is stopping
	done := context.WithoutCancel(ctx)
	if err != nil {
		p.handleFailure(done, job, err)
		return
	}
	if err := p.jobs.Complete(done, job.ID, result); err != nil {
		log.Error("failed to store job result", zap.Error(err))
	}
	p.publish(done, job.ID, models.WSMessage{
		Type:    "completed",
		Payload: models.CompletedEvent{JobID: job.ID, ResultType: resultType(job.Type)},
	})
	log.Info("job completed", zap.Duration("elapsed", time.Since(start)))
}

func (p *Pool) process(ctx context.Context, job *models.Job) (json.RawMessage, error) {
	var result interface{}

	switch job.Type {
	case models.JobDocumentAnalysis:
		var cfg models.DocumentRequest
		if err := decodeConfig(job, &cfg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(cfg.Content) == "" {
			return nil, fmt.Errorf("document content is empty")
		}
		analysis, err := p.study.AnalyzeDocument(ctx, cfg.Content)
		if err != nil {
			return nil, err
		}
		result = analysis

	case models.JobQuizGeneration:
		var cfg models.GenerateQuizRequest
		if err := decodeConfig(job, &cfg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(cfg.Content) == "" {
			return nil, fmt.Errorf("quiz content is empty")
		}
		questions, err := p.study.GenerateQuiz(ctx, cfg)
		if err != nil {
			return nil, err
		}
		result = questions

	case models.JobExamReport:
		var cfg models.ExamSubmission
		if err := decodeConfig(job, &cfg); err != nil {
			return nil, err
		}
		if len(cfg.Questions) == 0 {
			return nil, fmt.Errorf("exam has no questions")
		}
		result = p.study.GradeExam(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown job type: %s", job.Type)
	}

	return json.Marshal(result)
}

func decodeConfig(job *models.Job, dst interface{}) error {
	if err := json.Unmarshal(job.ConfigJSON, dst); err != nil {
		return fmt.Errorf("invalid %s config: %w", job.Type, err)
	}
	return nil
}

// handleFailure records the error. Failed jobs are not retried.
func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	errMsg := ollama.Describe(err)
	p.log.Warn("job failed", zap.Stringer("job_id", job.ID), zap.Error(err))

	if ferr := p.jobs.Fail(ctx, job.ID, errMsg); ferr != nil {
		p.log.Error("failed to store job failure", zap.Stringer("job_id", job.ID), zap.Error(ferr))
	}

	code := "JOB_FAILED"
	if ollama.IsModelNotFound(err) {
		code = "MODEL_NOT_FOUND"
	} else if errors.Is(err, context.DeadlineExceeded) {
		code = "TIMEOUT"
	} else if errors.Is(err, ollama.ErrUnavailable) {
		code = "OLLAMA_UNAVAILABLE"
	}
	p.publish(ctx, job.ID, models.WSMessage{
		Type:    "error",
		Payload: models.ErrorEvent{JobID: job.ID, ErrorCode: code, ErrorMessage: errMsg},
	})
}

func (p *Pool) publish(ctx context.Context, id uuid.UUID, msg models.WSMessage) {
	if err := p.jobs.Publish(ctx, id, msg); err != nil {
		p.log.Debug("failed to publish job update", zap.Stringer("job_id", id), zap.Error(err))
	}
}

func stepName(jobType string) string {
	switch jobType {
	case models.JobDocumentAnalysis:
		return "Analyzing document"
	case models.JobQuizGeneration:
		return "Generating questions"
	case models.JobExamReport:
		return "Grading exam"
	default:
		return "Processing"
	}
}

func resultType(jobType string) string {
	switch jobType {
	case models.JobDocumentAnalysis:
		return "document_analysis"
	case models.JobQuizGeneration:
		return "quiz"
	case models.JobExamReport:
		return "exam_result"
	default:
		return "unknown"
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
