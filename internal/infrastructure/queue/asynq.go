package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
)

const (
	TypeProjectionParked = "projection:parked"

	alertsQueue = "alerts"
)

// ParkedEventEnqueuer turns parked-event notifications into asynq tasks.
type ParkedEventEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisConnOpt, log zerolog.Logger) *ParkedEventEnqueuer {
	return &ParkedEventEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

func (q *ParkedEventEnqueuer) Close() error {
	return q.client.Close()
}

// NotifyParked implements ports.ParkedEventNotifier.
func (q *ParkedEventEnqueuer) NotifyParked(ctx context.Context, event ports.ParkedEvent) error {
	task, err := NewProjectionParkedTask(event)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, asynq.Queue(alertsQueue), asynq.MaxRetry(10)); err != nil {
		q.log.Warn().Err(err).Str("event_id", event.EventID).Msg("enqueue parked event notification failed")
		return err
	}
	return nil
}

// NewProjectionParkedTask builds the task carrying event as JSON.
func NewProjectionParkedTask(event ports.ParkedEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal parked event: %w", err)
	}
	return asynq.NewTask(TypeProjectionParked, payload), nil
}

var _ ports.ParkedEventNotifier = (*ParkedEventEnqueuer)(nil)
