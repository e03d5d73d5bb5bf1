package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pms/models"
	"pms/repositories/memory"
	"pms/services/logger"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPurger struct{}

func (failingPurger) PurgeOTAAvailability(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, fmt.Errorf("db down")
}

func TestPurgeOTAQueue(t *testing.T) {
	repo := memory.New()
	now := time.Date(2024, 1, 20, 0, 30, 0, 0, time.UTC)
	ctx := context.Background()
	for _, created := range []time.Time{now.AddDate(0, 0, -9), now.AddDate(0, 0, -6), now.AddDate(0, 0, -2)} {
		require.NoError(t, repo.CreateOTAAvailability(ctx, &models.OTAAvailability{
			RoomTypeID: 1, CreatedAt: created,
		}))
	}

	n, err := PurgeOTAQueue(ctx, repo, now, logger.Nop{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, repo.OTAAvailabilities(), 1)
}

func TestPurgeOTAQueueError(t *testing.T) {
	_, err := PurgeOTAQueue(context.Background(), failingPurger{}, time.Now(), logger.Nop{})
	assert.EqualError(t, err, "db down")
}

func TestInitCronJobs(t *testing.T) {
	c := cron.New()
	require.NoError(t, InitCronJobs(c, failingPurger{}, logger.Nop{}))
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}
