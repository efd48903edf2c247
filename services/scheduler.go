// services/scheduler.go
package services

import (
	"context"
	"log"

	"github.com/go-co-op/gocron/v2"
)

// StartSweepScheduler runs the expiration sweep once a day. The sweep's
// advisory lock covers the case where an operator also triggers it by
// hand while the job fires.
func (s *ExpirationService) StartSweepScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			report, err := s.RunSweep(context.Background())
			if err != nil {
				log.Printf("[Scheduler] Expiration sweep failed: %v", err)
				return
			}
			log.Printf("✅ Daily expiration sweep done: %d Palomas expired for %d user(s)",
				report.TotalExpired, report.UsersAffected)
		}),
	)
}
