package jobs

import (
	"context"

	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"
)

type reportPublisher interface {
	PublishDailyReport(ctx context.Context) error
}

type DailyReportJob struct {
	reports  reportPublisher
	log      logger.Logger
	schedule services.Schedule
}

func NewDailyReportJob(reports reportPublisher, schedule services.Schedule) *DailyReportJob {
	log := logger.New("dailyReportJob")
	log.Info("Creating new daily report job", "schedule", schedule)

	return &DailyReportJob{
		reports:  reports,
		log:      log,
		schedule: schedule,
	}
}

func (j *DailyReportJob) Name() string {
	return DailyReportJobName
}

func (j *DailyReportJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting daily operations report")

	if err := j.reports.PublishDailyReport(ctx); err != nil {
		return log.Err("daily report failed", err)
	}

	log.Info("Daily operations report completed successfully")
	return nil
}

func (j *DailyReportJob) Schedule() services.Schedule {
	return j.schedule
}
