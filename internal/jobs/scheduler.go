package jobs

import (
	"context"
	"log"
	"time"

	"castor/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler owns the background job loop.
type Scheduler struct {
	scheduler gocron.Scheduler
	profiles  *services.ProfileService
}

// NewScheduler creates the job scheduler with all jobs registered.
func NewScheduler(profiles *services.ProfileService) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	sched := &Scheduler{
		scheduler: s,
		profiles:  profiles,
	}

	// Sweep for stale style profiles every 6 hours so active users get
	// fresh analysis without waiting for their next request.
	_, err = s.NewJob(
		gocron.DurationJob(6*time.Hour),
		gocron.NewTask(sched.refreshStaleProfiles),
	)
	if err != nil {
		return nil, err
	}

	return sched, nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Println("⏰ [JOBS] Scheduler started")
}

// Stop shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ [JOBS] Scheduler shutdown error: %v", err)
	}
}

func (s *Scheduler) refreshStaleProfiles() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	refreshed, err := s.profiles.RefreshStale(ctx, 50)
	if err != nil {
		log.Printf("❌ [JOBS] Stale profile sweep failed: %v", err)
		return
	}
	log.Printf("🔄 [JOBS] Stale profile sweep complete: %d refreshed", refreshed)
}
