package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"pms/repositories/memory"
	"pms/services/logger"
	"pms/types"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	messages [][]byte
	err      error
}

func (b *fakeBroadcaster) SendMessage(message []byte) error {
	b.messages = append(b.messages, message)
	return b.err
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNotifyAvailabilityChanged(t *testing.T) {
	repo := memory.New()
	b := &fakeBroadcaster{}
	n := NewOTANotifier(OTANotifierOptions{Repo: repo, Broadcaster: b, Logger: logger.Nop{}})
	prop := types.PropertyContext{PropertyID: "P1", BusinessDate: utcDate(2024, 1, 5)}

	change := AvailabilityChange{RoomTypeID: 3, RoomNo: 301, From: utcDate(2024, 1, 2), To: utcDate(2024, 1, 8), Reason: "set_OOS"}
	require.NoError(t, n.NotifyAvailabilityChanged(context.Background(), prop, change))

	rows := repo.OTAAvailabilities()
	require.Len(t, rows, 1)
	assert.Equal(t, "P1", rows[0].PropertyID)
	assert.Equal(t, "RT3", rows[0].InvTypeCode)
	assert.Equal(t, utcDate(2024, 1, 5), rows[0].ArrivalDate, "arrival is clamped to the business date")
	assert.Equal(t, utcDate(2024, 1, 18), rows[0].DepartureDate)

	require.Len(t, b.messages, 1)
	var msg struct {
		Type       string             `json:"type"`
		PropertyID string             `json:"propertyId"`
		Change     AvailabilityChange `json:"change"`
	}
	require.NoError(t, json.Unmarshal(b.messages[0], &msg))
	assert.Equal(t, "availability", msg.Type)
	assert.Equal(t, uint(3), msg.Change.RoomTypeID)
}

func TestNotifyBroadcastFailureIsNotReturned(t *testing.T) {
	repo := memory.New()
	n := NewOTANotifier(OTANotifierOptions{Repo: repo, Broadcaster: &fakeBroadcaster{err: errors.New("closed")}, Logger: logger.Nop{}})

	err := n.NotifyAvailabilityChanged(context.Background(), types.PropertyContext{BusinessDate: utcDate(2024, 1, 5)},
		AvailabilityChange{RoomTypeID: 1, From: utcDate(2024, 1, 6), To: utcDate(2024, 1, 7)})
	require.NoError(t, err)
	assert.Len(t, repo.OTAAvailabilities(), 1)
}

func TestNotifyQueueFailure(t *testing.T) {
	repo := memory.New()
	repo.FailOn("CreateOTAAvailability", errors.New("db down"))
	b := &fakeBroadcaster{}
	n := NewOTANotifier(OTANotifierOptions{Repo: repo, Broadcaster: b, Logger: logger.Nop{}})

	err := n.NotifyAvailabilityChanged(context.Background(), types.PropertyContext{BusinessDate: utcDate(2024, 1, 5)},
		AvailabilityChange{RoomTypeID: 1, From: utcDate(2024, 1, 6), To: utcDate(2024, 1, 7)})
	assert.Error(t, err)
	assert.Empty(t, b.messages)
}
