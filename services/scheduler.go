// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartReverifyScheduler re-checks every sealed match on a fixed interval.
// The returned scheduler is shut down by the caller.
func (s *MatchService) StartReverifyScheduler(ctx context.Context, every time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			summary, err := s.ReverifyAll(ctx)
			if err != nil {
				log.Printf("[Scheduler] Re-verification interrupted: %v", err)
				return
			}
			if summary.Invalid > 0 || summary.Errors > 0 {
				log.Printf("❌ [Scheduler] Re-verified %d match(es): %d invalid, %d errors",
					summary.Checked, summary.Invalid, summary.Errors)
				return
			}
			log.Printf("✅ [Scheduler] Re-verified %d match(es), all seals hold", summary.Checked)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule re-verification: %w", err)
	}

	sched.Start()
	return sched, nil
}
