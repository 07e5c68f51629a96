package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// QueuePosSync carries post-commit POS synchronization jobs.
	QueuePosSync = "jobs:pos_sync"
	// QueueDead receives jobs that could not be decoded or routed.
	QueueDead = "jobs:dead"

	JobTypePosSync = "pos_sync"

	popTimeout = 5 * time.Second
)

// Job is the queue envelope. Payload stays opaque until the routed handler
// decodes it.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Handler processes one decoded job payload. A returned error is logged and
// the job is dropped; there is no automatic retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues jobs for the worker pool.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// PosSyncJobPayload identifies the committed document a sync job targets.
type PosSyncJobPayload struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
}

func (d *Dispatcher) EnqueuePosSync(ctx context.Context, payload PosSyncJobPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{
		ID:         uuid.NewString(),
		Type:       JobTypePosSync,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, QueuePosSync, data).Err()
}

// StartWorkerPool launches size goroutines consuming QueuePosSync. Each
// worker blocks on BRPOP and routes jobs by type through handlers. The pool
// drains until ctx is cancelled.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, size int) {
	if size <= 0 {
		size = 1
	}
	for i := 0; i < size; i++ {
		go workerLoop(ctx, rdb, handlers, i)
	}
	log.Info().Int("workers", size).Str("queue", QueuePosSync).Msg("worker pool started")
}

func workerLoop(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker stopping")
			return
		default:
		}

		res, err := rdb.BRPop(ctx, popTimeout, QueuePosSync).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error().Err(err).Int("worker", id).Msg("queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		// BRPOP returns [queue, value].
		if len(res) < 2 {
			continue
		}
		dispatch(ctx, rdb, handlers, id, res[1])
	}
}

func dispatch(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, id int, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Int("worker", id).Msg("undecodable job moved to dead queue")
		deadLetter(ctx, rdb, raw)
		return
	}
	handler, ok := handlers[job.Type]
	if !ok {
		log.Error().Str("job_id", job.ID).Str("type", job.Type).Msg("no handler for job type, moved to dead queue")
		deadLetter(ctx, rdb, raw)
		return
	}

	start := time.Now()
	if err := handler.Process(ctx, job.Payload); err != nil {
		log.Error().Err(err).
			Str("job_id", job.ID).
			Str("type", job.Type).
			Dur("elapsed", time.Since(start)).
			Msg("job failed")
		return
	}
	log.Info().
		Str("job_id", job.ID).
		Str("type", job.Type).
		Dur("elapsed", time.Since(start)).
		Msg("job processed")
}

func deadLetter(ctx context.Context, rdb *redis.Client, raw string) {
	if err := rdb.LPush(ctx, QueueDead, raw).Err(); err != nil {
		log.Error().Err(err).Msg("failed to push job to dead queue")
	}
}
