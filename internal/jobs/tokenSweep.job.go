package jobs

import (
	"context"

	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"
)

type tokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// TokenSweepJob purges self check-in tokens past their expiry.
type TokenSweepJob struct {
	tokens   tokenSweeper
	log      logger.Logger
	schedule services.Schedule
}

func NewTokenSweepJob(tokens tokenSweeper, schedule services.Schedule) *TokenSweepJob {
	log := logger.New("tokenSweepJob")
	log.Info("Creating new token sweep job", "schedule", schedule)

	return &TokenSweepJob{
		tokens:   tokens,
		log:      log,
		schedule: schedule,
	}
}

func (j *TokenSweepJob) Name() string {
	return TokenSweepJobName
}

func (j *TokenSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	count, err := j.tokens.SweepExpired(ctx)
	if err != nil {
		return log.Err("token sweep failed", err)
	}

	log.Info("Token sweep completed", "deleted", count)
	return nil
}

func (j *TokenSweepJob) Schedule() services.Schedule {
	return j.schedule
}
