package jobs

import (
	"context"
	"time"

	"pms/constants"
	"pms/services/logger"

	"github.com/robfig/cron/v3"
)

const purgeTimeout = 2 * time.Minute

// OTAQueuePurger drops channel-manager queue rows the channel manager has had time to consume.
type OTAQueuePurger interface {
	PurgeOTAAvailability(ctx context.Context, olderThan time.Time) (int64, error)
}

// PurgeOTAQueue removes queue rows created more than OTARetentionDays before now.
func PurgeOTAQueue(ctx context.Context, purger OTAQueuePurger, now time.Time, log logger.Logger) (int64, error) {
	cutoff := now.AddDate(0, 0, -constants.OTARetentionDays)
	n, err := purger.PurgeOTAAvailability(ctx, cutoff)
	if err != nil {
		log.Error("purge OTA availability queue before %s: %v", cutoff.Format(time.RFC3339), err)
		return 0, err
	}
	log.Info("purged %d OTA availability rows older than %s", n, cutoff.Format(constants.DateLayout))
	return n, nil
}

// InitCronJobs schedules the nightly jobs and starts the scheduler.
func InitCronJobs(c *cron.Cron, purger OTAQueuePurger, log logger.Logger) error {
	_, err := c.AddFunc("0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		_, _ = PurgeOTAQueue(ctx, purger, time.Now(), log)
	})
	if err != nil {
		return err
	}

	c.Start()
	log.Info("Cron jobs initialized successfully")
	return nil
}
