package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consumer drains JSON-encoded task events from a Redis list and dispatches
// them to the handler. The task service LPUSHes; we BRPOP, so events are
// delivered in publish order.
type Consumer struct {
	Redis   *redis.Client
	Queue   string
	Handler *Handler
	Logger  *slog.Logger
}

// Run blocks consuming events until ctx is cancelled. Malformed payloads
// and handler failures are logged and skipped; the queue keeps moving.
func (c *Consumer) Run(ctx context.Context) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for {
		res, err := c.Redis.BRPop(ctx, 5*time.Second, c.Queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // timeout, poll again
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("event_queue_read_failed", "queue", c.Queue, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if len(res) != 2 {
			continue
		}

		var ev TaskEvent
		if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
			logger.Error("event_decode_failed", "queue", c.Queue, "error", err)
			continue
		}

		if err := c.Handler.Handle(ctx, ev); err != nil {
			logger.Error("event_handling_failed",
				"event_id", ev.ID, "type", ev.Type, "task_id", ev.TaskID, "error", err)
		}
	}
}
