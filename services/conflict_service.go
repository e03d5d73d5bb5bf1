package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pms/constants"
	apperrors "pms/errors"
	"pms/models"
	"pms/repositories"
	"pms/services/logger"
	"pms/types"
)

// ConflictCode lets callers branch on why a room was rejected.
type ConflictCode string

const (
	ConflictNone       ConflictCode = ""
	ConflictRoomStatus ConflictCode = "ROOM_STATUS"
	ConflictOccupancy  ConflictCode = "OCCUPANCY"
	ConflictHold       ConflictCode = "HOLD"
	ConflictCapacity   ConflictCode = "CAPACITY"
	ConflictOutOfOrder ConflictCode = "OUT_OF_ORDER"
)

type OverlapQuery struct {
	RoomNo     int
	RoomTypeID uint
	From       time.Time
	To         time.Time
}

// OverlapResult carries an advisory Reason for display and a Code for branching.
type OverlapResult struct {
	Allowed       bool         `json:"allowed"`
	Code          ConflictCode `json:"code,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	GuestName     string       `json:"guestName,omitempty"`
	ConflictStart *time.Time   `json:"conflictStart,omitempty"`
	ConflictEnd   *time.Time   `json:"conflictEnd,omitempty"`
	ConflictDate  *time.Time   `json:"conflictDate,omitempty"`
}

// Overlaps applies the half-open rule for a new window [from, to) against [inDt, outDt).
// Touching at either boundary is not an overlap.
func Overlaps(from, to, inDt, outDt time.Time) bool {
	return from.Equal(inDt) ||
		(from.Before(inDt) && to.After(inDt)) ||
		(from.After(inDt) && from.Before(outDt))
}

type ConflictService struct {
	repo         repositories.Repository
	availability *AvailabilityService
	logger       logger.Logger
}

type ConflictServiceOptions struct {
	Repo         repositories.Repository
	Availability *AvailabilityService
	Logger       logger.Logger
}

func NewConflictService(opts ConflictServiceOptions) *ConflictService {
	return &ConflictService{repo: opts.Repo, availability: opts.Availability, logger: opts.Logger}
}

func (s *ConflictService) WithRepository(repo repositories.Repository) *ConflictService {
	c := *s
	c.repo = repo
	c.availability = s.availability.WithRepository(repo)
	return &c
}

func rejected(code ConflictCode, reason string) *OverlapResult {
	return &OverlapResult{Allowed: false, Code: code, Reason: reason}
}

func fmtDate(t time.Time) string {
	return t.Format(constants.DateLayout)
}

// CheckOverlap decides whether the room can take a new claim over [From, To).
func (s *ConflictService) CheckOverlap(ctx context.Context, prop types.PropertyContext, q OverlapQuery) (*OverlapResult, error) {
	if q.RoomNo == 0 {
		return nil, apperrors.Validation("room number is required")
	}
	if q.From.IsZero() || q.To.IsZero() {
		return nil, apperrors.Validation("from and to are required")
	}
	from, to := types.DateOnly(q.From), types.DateOnly(q.To)
	if to.Before(from) {
		return nil, apperrors.Validation("to is before from")
	}

	room, err := s.repo.GetRoom(ctx, q.RoomNo)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, fmt.Sprintf("Room %d not found.", q.RoomNo), err)
	}
	if err != nil {
		return nil, fmt.Errorf("load room %d: %w", q.RoomNo, err)
	}
	roomTypeID := q.RoomTypeID
	if roomTypeID == 0 {
		roomTypeID = room.RoomTypeID
	}

	if room.Status == models.RoomStatusInactive {
		return rejected(ConflictRoomStatus, "Invalid room status."), nil
	}
	if from.Equal(prop.Today()) && room.Status == models.RoomStatusOccupied {
		return rejected(ConflictRoomStatus, fmt.Sprintf("Room %d is not available today.", room.RoomNo)), nil
	}

	intervals, err := s.occupancy(ctx, room.RoomNo, from)
	if err != nil {
		return nil, err
	}
	for _, occ := range intervals {
		inDt, outDt := types.DateOnly(occ.From), types.DateOnly(occ.To)
		if Overlaps(from, to, inDt, outDt) {
			res := rejected(ConflictOccupancy, fmt.Sprintf("Room %d is used by %s from %s to %s.",
				room.RoomNo, occ.GuestName, fmtDate(inDt), fmtDate(outDt)))
			res.GuestName = occ.GuestName
			res.ConflictStart, res.ConflictEnd = &inDt, &outDt
			return res, nil
		}
	}

	if room.IsHold {
		return rejected(ConflictHold, fmt.Sprintf("Room %d is on hold.", room.RoomNo)), nil
	}

	stock, err := s.availability.CheckStock(ctx, prop, StockQuery{
		RoomTypeID: s.availability.CapacityRoomType(ctx, prop, roomTypeID),
		RoomNo:     room.RoomNo,
		Arrival:    from,
		Departure:  to,
	})
	if err != nil {
		return nil, err
	}
	if !stock.Available {
		res := rejected(ConflictCapacity, stock.Reason)
		res.ConflictDate = stock.ConflictDate
		return res, nil
	}

	entries, err := s.repo.ListOOOEntries(ctx, room.RoomNo)
	if err != nil {
		return nil, fmt.Errorf("list out-of-order entries for room %d: %w", room.RoomNo, err)
	}
	for _, e := range entries {
		inDt, outDt := types.DateOnly(e.FromDate), types.DateOnly(e.ToDate)
		if Overlaps(from, to, inDt, outDt) {
			res := rejected(ConflictOutOfOrder, fmt.Sprintf("Room %d is %s from %s to %s. %s",
				room.RoomNo, e.Kind, fmtDate(inDt), fmtDate(outDt), e.Remark))
			res.ConflictStart, res.ConflictEnd = &inDt, &outDt
			return res, nil
		}
	}

	return &OverlapResult{Allowed: true}, nil
}

// occupancy unions reservations, in-house stays and multi-room assignments for the room.
func (s *ConflictService) occupancy(ctx context.Context, roomNo int, from time.Time) ([]models.Occupancy, error) {
	reservations, err := s.repo.ListReservationOccupancy(ctx, roomNo)
	if err != nil {
		return nil, fmt.Errorf("reservations for room %d: %w", roomNo, err)
	}
	inHouse, err := s.repo.ListInHouseOccupancy(ctx, roomNo)
	if err != nil {
		return nil, fmt.Errorf("in-house stays for room %d: %w", roomNo, err)
	}
	assigned, err := s.repo.ListAssignmentOccupancy(ctx, roomNo, from)
	if err != nil {
		return nil, fmt.Errorf("multi-room assignments for room %d: %w", roomNo, err)
	}
	out := make([]models.Occupancy, 0, len(reservations)+len(inHouse)+len(assigned))
	out = append(out, reservations...)
	out = append(out, inHouse...)
	return append(out, assigned...), nil
}
