// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"lewa-type-backend/models"
)

// StartMaintenanceScheduler runs housekeeping every minute: expired unused
// invites are swept, and joining closes on competitions that have ended.
// Invite validation does not depend on the sweep; it only keeps the table
// from accumulating dead tokens.
func (s *CompetitionService) StartMaintenanceScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			res := s.DB.Where("used = ? AND expires_at IS NOT NULL AND expires_at < ?", false, now).
				Delete(&models.CompetitionInvite{})
			if res.Error != nil {
				log.Printf("[Scheduler] invite sweep failed: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("[Scheduler] swept %d expired invite(s)", res.RowsAffected)
			}

			res = s.DB.Model(&models.Competition{}).
				Where("allow_join = ? AND ends_at IS NOT NULL AND ends_at < ?", true, now).
				Update("allow_join", false)
			if res.Error != nil {
				log.Printf("[Scheduler] join close failed: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("[Scheduler] closed joining on %d ended competition(s)", res.RowsAffected)
			}
		}),
	)
}
