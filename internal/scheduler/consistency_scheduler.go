package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/veloura/veloura-backend/internal/app/service"
	"github.com/veloura/veloura-backend/pkg/logger"
)

// ConsistencyScheduler runs the nightly data sweep: repair orders whose
// refunded return never flipped them, and surface orders without line
// items.
type ConsistencyScheduler struct {
	cron               *cron.Cron
	consistencyService service.ConsistencyService
}

func NewConsistencyScheduler(consistencyService service.ConsistencyService) *ConsistencyScheduler {
	return &ConsistencyScheduler{
		cron:               cron.New(),
		consistencyService: consistencyService,
	}
}

// Start registers the sweep to run every night at 03:00.
func (s *ConsistencyScheduler) Start() error {
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		logger.Info("Starting scheduled consistency sweep", nil)

		repaired, err := s.consistencyService.RepairRefundMismatches()
		if err != nil {
			logger.Error("Consistency sweep failed during refund repair", err)
			return
		}

		orphaned, err := s.consistencyService.ReportZeroLineOrders()
		if err != nil {
			logger.Error("Consistency sweep failed during zero-line scan", err)
			return
		}

		logger.Info("Consistency sweep finished", map[string]interface{}{
			"refunds_repaired": repaired,
			"zero_line_orders": len(orphaned),
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for consistency sweep", err)
		return err
	}

	s.cron.Start()
	logger.Info("Consistency scheduler started successfully (daily at 3:00 AM)", nil)

	return nil
}

// Stop halts the scheduler.
func (s *ConsistencyScheduler) Stop() {
	logger.Info("Stopping consistency scheduler...", nil)
	s.cron.Stop()
	logger.Info("Consistency scheduler stopped", nil)
}
