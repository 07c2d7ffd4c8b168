package jobs

import (
	"bunkhouse/config"
	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"
)

const (
	TokenSweepJobName  = "ExpiredTokenSweep"
	DailyReportJobName = "DailyOperationsReport"
)

// RegisterAllJobs registers every job so it can also be run on demand.
// SchedulerEnabled only decides whether the caller starts the timer loop.
func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	service services.Service,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if err := schedulerService.AddJob(NewTokenSweepJob(service.Tokens, services.Hourly)); err != nil {
		return log.Err("failed to register token sweep job", err)
	}
	log.Info("Registered token sweep job", "schedule", "hourly")

	if err := schedulerService.AddJob(NewDailyReportJob(service.Reports, services.DailyMorning)); err != nil {
		return log.Err("failed to register daily report job", err)
	}
	log.Info("Registered daily report job", "schedule", "09:00", "timezone", config.ReportTimezone)

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, jobs run on demand only")
	}
	return nil
}
