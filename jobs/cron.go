package jobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// IdempotencyPruner removes expired idempotency records.
type IdempotencyPruner interface {
	Prune(ctx context.Context) (int64, error)
}

var idempotencyPruner IdempotencyPruner

// SetIdempotencyPruner installs the pruner implementation.
func SetIdempotencyPruner(p IdempotencyPruner) {
	idempotencyPruner = p
}

// InitCronJobs registers the scheduled maintenance jobs.
func InitCronJobs(c *cron.Cron) error {
	// Nightly at 03:00, after the accounting day is over.
	_, err := c.AddFunc("0 3 * * *", func() {
		if idempotencyPruner == nil {
			return
		}
		removed, err := idempotencyPruner.Prune(context.Background())
		if err != nil {
			log.Printf("idempotency prune failed: %v", err)
			return
		}
		log.Printf("idempotency prune removed %d records", removed)
	})
	if err != nil {
		return err
	}

	c.Start()
	return nil
}
