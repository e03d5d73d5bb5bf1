package services

import (
	"context"
	"fmt"
	"time"

	"pms/constants"
	apperrors "pms/errors"
	"pms/models"
	"pms/repositories"
	"pms/services/logger"
	"pms/types"
)

// StockQuery asks whether a room type (0 = all types), and optionally one room, is free over
// [Arrival, Departure).
type StockQuery struct {
	RoomTypeID         uint
	RoomNo             int
	Arrival            time.Time
	Departure          time.Time
	ExcludeTransaction string
	Hourly             bool
}

type StockResult struct {
	Available    bool       `json:"available"`
	ConflictDate *time.Time `json:"conflictDate,omitempty"`
	Capacity     int64      `json:"capacity"`
	Reason       string     `json:"reason,omitempty"`
}

// NightUsage is the capacity consumed on one stay-date, by source.
type NightUsage struct {
	Date           time.Time `json:"date"`
	Stay           int64     `json:"stay"`
	OutOfOrder     int64     `json:"outOfOrder"`
	OutOfInventory int64     `json:"outOfInventory"`
	Blocked        int64     `json:"blocked"`
	Reassigned     int64     `json:"reassigned"`
}

func (u NightUsage) Total() int64 {
	return u.Stay + u.Blocked + u.Reassigned
}

type AvailabilityService struct {
	repo     repositories.Repository
	settings SettingsProvider
	logger   logger.Logger
}

type AvailabilityServiceOptions struct {
	Repo     repositories.Repository
	Settings SettingsProvider
	Logger   logger.Logger
}

func NewAvailabilityService(opts AvailabilityServiceOptions) *AvailabilityService {
	return &AvailabilityService{repo: opts.Repo, settings: opts.Settings, logger: opts.Logger}
}

// WithRepository returns a copy reading through repo, typically an open transaction.
func (s *AvailabilityService) WithRepository(repo repositories.Repository) *AvailabilityService {
	c := *s
	c.repo = repo
	return &c
}

// CapacityRoomType is the room type capacity checks should run against.
func (s *AvailabilityService) CapacityRoomType(ctx context.Context, prop types.PropertyContext, roomTypeID uint) uint {
	if s.settings != nil && s.settings.Enabled(ctx, prop, constants.SettingIgnoreRoomTypeCapacity) {
		return 0
	}
	return roomTypeID
}

// CheckStock reports whether capacity is free for every night of the query window.
func (s *AvailabilityService) CheckStock(ctx context.Context, prop types.PropertyContext, q StockQuery) (*StockResult, error) {
	if q.Arrival.IsZero() || q.Departure.IsZero() {
		return nil, apperrors.Validation("arrival and departure are required")
	}
	arrival, departure := types.DateOnly(q.Arrival), types.DateOnly(q.Departure)
	if departure.Before(arrival) {
		return nil, apperrors.Validation("departure is before arrival")
	}
	if q.Hourly {
		return &StockResult{Available: false, Reason: "Hourly stock check is not supported."}, nil
	}
	if departure.Equal(arrival) {
		departure = arrival.AddDate(0, 0, 1)
	}
	arrival = types.MaxDate(arrival, prop.Today())
	if !arrival.Before(departure) {
		return &StockResult{Available: true}, nil
	}

	usage, capacity, err := s.nightlyUsage(ctx, q.RoomTypeID, arrival, departure, q.ExcludeTransaction)
	if err != nil {
		return nil, err
	}
	for _, u := range usage {
		if u.Total() >= capacity {
			d := u.Date
			return &StockResult{
				Available:    false,
				ConflictDate: &d,
				Capacity:     capacity,
				Reason:       fmt.Sprintf("Room stock is not available on %s.", d.Format(constants.DateLayout)),
			}, nil
		}
	}

	if q.RoomNo != 0 {
		nq := repositories.RoomNightQuery{RoomNo: q.RoomNo, From: arrival, To: departure, ExcludeTransaction: q.ExcludeTransaction}
		reserved, err := s.repo.FirstReservationNight(ctx, nq)
		if err != nil {
			return nil, fmt.Errorf("reservation nights for room %d: %w", q.RoomNo, err)
		}
		inHouse, err := s.repo.FirstInHouseNight(ctx, nq)
		if err != nil {
			return nil, fmt.Errorf("in-house nights for room %d: %w", q.RoomNo, err)
		}
		if first := earliest(reserved, inHouse); first != nil {
			return &StockResult{
				Available:    false,
				ConflictDate: first,
				Capacity:     capacity,
				Reason:       fmt.Sprintf("Room %d is already occupied on %s.", q.RoomNo, first.Format(constants.DateLayout)),
			}, nil
		}
	}
	return &StockResult{Available: true, Capacity: capacity}, nil
}

// nightlyUsage merges stay, block and reassignment consumption for every night in [from, to).
func (s *AvailabilityService) nightlyUsage(ctx context.Context, roomTypeID uint, from, to time.Time, exclude string) ([]NightUsage, int64, error) {
	capacity, err := s.repo.CountSellableRooms(ctx, roomTypeID)
	if err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	stays, err := s.repo.SumStayByDate(ctx, repositories.StockQuery{
		RoomTypeID: roomTypeID, From: from, To: to, ExcludeTransaction: exclude,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("sum stock: %w", err)
	}
	blocks, err := s.repo.SumBlocksByDate(ctx, roomTypeID, from, to)
	if err != nil {
		return nil, 0, fmt.Errorf("sum blocks: %w", err)
	}
	var assignments []models.MultiRoomAssignment
	if roomTypeID != 0 {
		assignments, err = s.repo.ListMultiRoomAssignments(ctx, roomTypeID, from, to)
		if err != nil {
			return nil, 0, fmt.Errorf("list multi-room assignments: %w", err)
		}
	}

	byDate := make(map[time.Time]models.NightCount, len(stays))
	for _, nc := range stays {
		byDate[types.DateOnly(nc.StayDate)] = nc
	}
	nights := types.Nights(from, to)
	usage := make([]NightUsage, 0, len(nights))
	for _, d := range nights {
		nc := byDate[d]
		u := NightUsage{
			Date:           d,
			Stay:           nc.Stay,
			OutOfOrder:     nc.OutOfOrder,
			OutOfInventory: nc.OutOfInventory,
			Blocked:        blocks[d],
		}
		for i := range assignments {
			u.Reassigned += assignments[i].Consumption(roomTypeID, d)
		}
		usage = append(usage, u)
	}
	return usage, capacity, nil
}

func earliest(dates ...*time.Time) *time.Time {
	var first *time.Time
	for _, d := range dates {
		if d != nil && (first == nil || d.Before(*first)) {
			first = d
		}
	}
	return first
}
