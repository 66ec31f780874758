package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/baharkarakas/autotopup-backend/internal/worker"
)

const publishTimeout = 5 * time.Second

// Emitter hands events to a Publisher on the worker pool.
type Emitter struct {
	pub  Publisher
	pool *worker.Pool
	log  *slog.Logger
}

func NewEmitter(pub Publisher, pool *worker.Pool, log *slog.Logger) *Emitter {
	return &Emitter{pub: pub, pool: pool, log: log}
}

// Emit never blocks; when the queue is full the event is dropped and logged.
func (em *Emitter) Emit(e Event) {
	if em == nil {
		return
	}
	ok := em.pool.TrySubmit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := em.pub.Publish(ctx, e); err != nil {
			em.log.Warn("event publish failed", "type", e.Type, "id", e.ID, "err", err)
		}
	})
	if !ok {
		em.log.Warn("event dropped", "type", e.Type, "id", e.ID, "queued", em.pool.Pending())
	}
}
