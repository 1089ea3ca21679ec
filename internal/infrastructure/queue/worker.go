package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
)

// ParkedEventHandler processes projection:parked tasks by forwarding them to the webhook.
type ParkedEventHandler struct {
	emitter ports.WebhookEmitter
	log     zerolog.Logger
}

func NewParkedEventHandler(emitter ports.WebhookEmitter, log zerolog.Logger) *ParkedEventHandler {
	return &ParkedEventHandler{emitter: emitter, log: log}
}

// ProcessTask implements asynq.Handler. Undecodable payloads are skipped; emit failures are retried by asynq.
func (h *ParkedEventHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var ev ports.ParkedEvent
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		h.log.Error().Err(err).Msg("parked event task payload invalid")
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	h.log.Warn().
		Str("subscription", ev.Subscription).
		Str("event_id", ev.EventID).
		Str("event_type", ev.EventType).
		Str("stream", ev.Stream).
		Uint64("revision", ev.Revision).
		Str("reason", ev.Reason).
		Msg("projection parked an event; replay after fixing the cause")
	if err := h.emitter.Emit(ctx, ev); err != nil {
		return fmt.Errorf("emit parked event %s: %w", ev.EventID, err)
	}
	return nil
}

// Worker runs the asynq server for alert tasks.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// NewWorker creates an asynq server and registers handlers. Call Start to begin processing.
func NewWorker(redisOpt asynq.RedisConnOpt, handler *ParkedEventHandler) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{alertsQueue: 1},
		LogLevel:    asynq.WarnLevel,
	})
	mux := asynq.NewServeMux()
	mux.Handle(TypeProjectionParked, handler)
	return &Worker{srv: srv, mux: mux}
}

// Start begins processing in background goroutines. Use Shutdown for graceful stop.
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
