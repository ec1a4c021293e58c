package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokenSweep is the task type for purging expired refresh tokens.
	TaskTokenSweep = "token:sweep"
)

// NewTokenSweepTask constructs an Asynq task. The sweep carries no payload;
// the cutoff is always the handler's current time.
func NewTokenSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTokenSweep, nil)
}

// Sweeper removes refresh tokens whose expiry has passed.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenSweepJob deletes expired refresh token rows on a schedule. Revoked
// rows older than their expiry go too; they can never be replayed.
type TokenSweepJob struct {
	sweeper Sweeper
	logger  *slog.Logger
}

// NewTokenSweepJob builds the job.
func NewTokenSweepJob(sweeper Sweeper, logger *slog.Logger) *TokenSweepJob {
	return &TokenSweepJob{sweeper: sweeper, logger: logger}
}

// Handle processes TaskTokenSweep tasks.
func (j *TokenSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	removed, err := j.sweeper.SweepExpired(ctx, time.Now())
	if err != nil {
		if j.logger != nil {
			j.logger.Error("token sweep", slog.Any("error", err))
		}
		return err
	}
	if j.logger != nil {
		j.logger.Info("token sweep complete", slog.Int64("removed", removed))
	}
	return nil
}
