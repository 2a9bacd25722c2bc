// workers/seal_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"match-integrity-system/services"
)

const sealBatchSize = 50

// PollUnsealed seals stored matches that have no seal yet (live matches and
// anything whose inline seal failed).
func PollUnsealed(ctx context.Context, matches *services.MatchService, pollInterval time.Duration) {
	log.Println("Starting seal polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Seal polling stopped.")
			return
		case <-ticker.C:
			sealed, err := matches.SealPending(ctx, sealBatchSize)
			if err != nil {
				log.Printf("❌ [SEAL_WORKER] Error listing unsealed matches: %v", err)
				continue
			}
			if sealed > 0 {
				log.Printf("✅ [SEAL_WORKER] Sealed %d match(es).", sealed)
			}
		}
	}
}
