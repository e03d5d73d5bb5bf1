package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"pms/constants"
	"pms/models"
	"pms/repositories/memory"
	"pms/services/logger"
	"pms/services/notification"
	"pms/types"

	"github.com/goccy/go-json"
)

var businessDate = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse(constants.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func testProp() types.PropertyContext {
	return types.PropertyContext{
		PropertyID:   "P1",
		BusinessDate: businessDate,
		BaseCurrency: "IDR",
		Actor:        "tester",
		RequestID:    "req-1",
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []notification.AvailabilityChange
}

func (n *recordingNotifier) NotifyAvailabilityChanged(ctx context.Context, prop types.PropertyContext, change notification.AvailabilityChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return nil
}

func (n *recordingNotifier) Changes() []notification.AvailabilityChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.AvailabilityChange(nil), n.changes...)
}

// mapCache is a Cache kept in a map, encoding values like the redis cache does.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(ctx context.Context, key string, target interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, target)
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type fixture struct {
	repo         *memory.Repository
	settings     *SettingsService
	availability *AvailabilityService
	conflicts    *ConflictService
	lifecycle    *LifecycleService
	notifier     *recordingNotifier
	prop         types.PropertyContext
}

// newFixture seeds room type 1 (rooms 101-103) and room type 2 (room 201), all vacant clean.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.New()
	repo.AddRoomType(models.RoomType{ID: 1, Code: "DLX", Name: "Deluxe", Active: true})
	repo.AddRoomType(models.RoomType{ID: 2, Code: "STD", Name: "Standard", Active: true})
	for _, no := range []int{101, 102, 103} {
		repo.AddRoom(models.Room{RoomNo: no, RoomTypeID: 1, Status: models.RoomStatusVacantClean})
	}
	repo.AddRoom(models.Room{RoomNo: 201, RoomTypeID: 2, Status: models.RoomStatusVacantClean})

	log := logger.Nop{}
	settings := NewSettingsService(SettingsServiceOptions{Repo: repo, Logger: log})
	availability := NewAvailabilityService(AvailabilityServiceOptions{Repo: repo, Settings: settings, Logger: log})
	conflicts := NewConflictService(ConflictServiceOptions{Repo: repo, Availability: availability, Logger: log})
	notifier := &recordingNotifier{}
	lifecycle := NewLifecycleService(LifecycleServiceOptions{
		Repo:         repo,
		Availability: availability,
		Conflicts:    conflicts,
		Settings:     settings,
		Notifier:     notifier,
		Dispatch:     func(f func()) { f() },
		Logger:       log,
	})
	return &fixture{
		repo:         repo,
		settings:     settings,
		availability: availability,
		conflicts:    conflicts,
		lifecycle:    lifecycle,
		notifier:     notifier,
		prop:         testProp(),
	}
}

// stay adds one consumed night for transaction txn in room/type.
func (f *fixture) stay(txn string, roomNo int, roomTypeID uint, date string) {
	f.repo.AddStock(models.StockRecord{
		TransactionNo: txn, RoomNo: roomNo, RoomTypeID: roomTypeID, StayDate: day(date), IsStay: true,
	})
}

func (f *fixture) room(t *testing.T, roomNo int) models.Room {
	t.Helper()
	room, err := f.repo.GetRoom(context.Background(), roomNo)
	if err != nil {
		t.Fatalf("load room %d: %v", roomNo, err)
	}
	return *room
}
