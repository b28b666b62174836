package scheduler

import (
	"fmt"
	"time"

	"github.com/KeelLabsHQ/keelbridge/internal/core/ports"
	"github.com/go-co-op/gocron"
)

type service struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

func (s *service) ScheduleReconciliation(interval time.Duration, reportFn func()) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval: %s", interval)
	}
	_, err := s.scheduler.Every(interval).Do(reportFn)
	return err
}
