package utils

import (
	"context"
	"log"
	"time"

	"lms/services"

	"github.com/robfig/cron/v3"
)

// InitializeReconcileScheduler sets up the periodic sweep for purchases
// whose gateway webhook never arrived.
func InitializeReconcileScheduler(purchases *services.PurchaseService, olderThan time.Duration) *cron.Cron {
	log.Println("[RECONCILE] Initializing purchase reconciliation scheduler...")

	c := cron.New()

	// Every 10 minutes, settle pending purchases older than the cutoff
	c.AddFunc("*/10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := purchases.ReconcilePending(ctx, olderThan); err != nil {
			log.Printf("[RECONCILE] Sweep failed: %v", err)
		}
	})

	c.Start()
	log.Println("[RECONCILE] Scheduler started - runs every 10 minutes")
	return c
}
