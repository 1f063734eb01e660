package report

import (
	"context"
	"fmt"

	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler sends the previous month's report to every enabled user on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	clock   clock.Clock
	logger  *zap.Logger
}

func NewScheduler(schedule string, service *Service, clk clock.Clock, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		service: service,
		clock:   clk,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.runMonthly); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) runMonthly() {
	year, month := PreviousMonth(s.clock.Now())
	if _, _, err := s.service.SendAll(context.Background(), year, month); err != nil {
		s.logger.Error("failed to send monthly reports", zap.Error(err))
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("Report scheduler started", zap.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Report scheduler stopped")
	return nil
}
