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
	"pms/services/notification"
	"pms/types"

	"github.com/bwmarrin/snowflake"
)

const notifyTimeout = 10 * time.Second

type HoldRequest struct {
	RoomNo int
	Remark string
}

type OOORequest struct {
	RoomNo     int
	RoomTypeID uint
	Kind       models.OOOKind
	From       time.Time
	To         time.Time
	Remark     string
}

// RemoveOOORequest locates the entry by From/To, or by the room's recorded window when both are nil.
type RemoveOOORequest struct {
	RoomNo int
	Kind   models.OOOKind
	From   *time.Time
	To     *time.Time
}

// LifecycleService moves rooms between Normal, Hold, OutOfOrder and OutOfInventory.
// Each transition locks the room and its room type(s), re-evaluates every guard and
// writes all of its rows in one transaction.
type LifecycleService struct {
	repo         repositories.Repository
	availability *AvailabilityService
	conflicts    *ConflictService
	settings     SettingsProvider
	audit        *AuditLogger
	notifier     notification.AvailabilityNotifier
	ids          *snowflake.Node
	dispatch     func(func())
	logger       logger.Logger
}

type LifecycleServiceOptions struct {
	Repo         repositories.Repository
	Availability *AvailabilityService
	Conflicts    *ConflictService
	Settings     SettingsProvider
	Audit        *AuditLogger
	Notifier     notification.AvailabilityNotifier
	IDNode       *snowflake.Node
	// Dispatch runs post-commit notifications; defaults to a new goroutine.
	Dispatch func(func())
	Logger   logger.Logger
}

func NewLifecycleService(opts LifecycleServiceOptions) *LifecycleService {
	s := &LifecycleService{
		repo:         opts.Repo,
		availability: opts.Availability,
		conflicts:    opts.Conflicts,
		settings:     opts.Settings,
		audit:        opts.Audit,
		notifier:     opts.Notifier,
		ids:          opts.IDNode,
		dispatch:     opts.Dispatch,
		logger:       opts.Logger,
	}
	if s.audit == nil {
		s.audit = NewAuditLogger()
	}
	if s.dispatch == nil {
		s.dispatch = func(f func()) { go f() }
	}
	if s.ids == nil {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		s.ids = node
	}
	return s
}

// wrap turns storage failures into a PersistenceError; business rejections pass through.
func (s *LifecycleService) wrap(prop types.PropertyContext, op string, err error) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}
	s.logger.Error("%s failed request=%s property=%s: %v", op, prop.RequestID, prop.PropertyID, err)
	return apperrors.Persistence(op, err)
}

func (s *LifecycleService) lockRoom(ctx context.Context, tx repositories.Repository, roomNo int) (*models.Room, error) {
	room, err := tx.LockRoom(ctx, roomNo)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, fmt.Sprintf("Room %d not found.", roomNo), err)
	}
	return room, err
}

// SetHold puts a vacant room on hold for today.
func (s *LifecycleService) SetHold(ctx context.Context, prop types.PropertyContext, req HoldRequest) (*models.Room, error) {
	if req.RoomNo <= 0 {
		return nil, apperrors.Validation("room number is required")
	}
	today := prop.Today()

	var updated models.Room
	err := s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		room, err := s.lockRoom(ctx, tx, req.RoomNo)
		if err != nil {
			return err
		}
		capacityType := s.availability.CapacityRoomType(ctx, prop, room.RoomTypeID)
		if err := tx.LockRoomTypes(ctx, capacityType); err != nil {
			return err
		}

		updated = *room
		if err := models.GetRoomState(room).Hold(&updated, req.Remark, prop.Actor); err != nil {
			return err
		}

		stock, err := s.availability.WithRepository(tx).CheckStock(ctx, prop, StockQuery{
			RoomTypeID: capacityType, Arrival: today, Departure: today,
		})
		if err != nil {
			return err
		}
		if !stock.Available {
			return apperrors.Conflict(stock.Reason)
		}

		arriving, err := tx.FindReservationArriving(ctx, room.RoomNo, today)
		if err != nil {
			return err
		}
		if arriving != nil {
			return apperrors.Conflict(fmt.Sprintf("Room %d has a reservation arriving today (%s, %s).",
				room.RoomNo, arriving.ReservationNo, arriving.GuestName))
		}

		overlap, err := s.conflicts.WithRepository(tx).CheckOverlap(ctx, prop, OverlapQuery{
			RoomNo: room.RoomNo, RoomTypeID: room.RoomTypeID, From: today, To: today.AddDate(0, 0, 1),
		})
		if err != nil {
			return err
		}
		if !overlap.Allowed {
			return apperrors.Conflict(overlap.Reason)
		}

		inHouse, err := tx.FindInHouseTransaction(ctx, room.RoomNo)
		if err != nil {
			return err
		}
		if inHouse != nil {
			return apperrors.Conflict(fmt.Sprintf("Room %d is in use by %s.", room.RoomNo, inHouse.GuestName))
		}

		if err := tx.SaveRoom(ctx, &updated); err != nil {
			return err
		}
		return s.audit.LogRoomStatusChange(ctx, tx, prop, RoomStatusChange{
			Before: *room, After: updated,
			Metadata: map[string]interface{}{"action": "hold", "remark": req.Remark},
		})
	})
	if err != nil {
		return nil, s.wrap(prop, "set hold", err)
	}
	s.logger.Info("room %d put on hold by %s", updated.RoomNo, prop.Actor)
	return &updated, nil
}

// UnsetHold releases a held room.
func (s *LifecycleService) UnsetHold(ctx context.Context, prop types.PropertyContext, roomNo int) (*models.Room, error) {
	if roomNo <= 0 {
		return nil, apperrors.Validation("room number is required")
	}
	var updated models.Room
	err := s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		room, err := s.lockRoom(ctx, tx, roomNo)
		if err != nil {
			return err
		}
		updated = *room
		if err := models.GetRoomState(room).Release(&updated); err != nil {
			return err
		}
		if err := tx.SaveRoom(ctx, &updated); err != nil {
			return err
		}
		return s.audit.LogRoomStatusChange(ctx, tx, prop, RoomStatusChange{
			Before: *room, After: updated,
			Metadata: map[string]interface{}{"action": "release"},
		})
	})
	if err != nil {
		return nil, s.wrap(prop, "unset hold", err)
	}
	s.logger.Info("room %d released from hold by %s", roomNo, prop.Actor)
	return &updated, nil
}

func validateOOOWindow(roomNo int, kind models.OOOKind, from, to time.Time) error {
	if roomNo <= 0 {
		return apperrors.Validation("room number is required")
	}
	if !kind.Valid() {
		return apperrors.Validation("kind must be OOS or OOI")
	}
	if from.IsZero() || to.IsZero() {
		return apperrors.Validation("from and to are required")
	}
	if types.DateOnly(to).Before(types.DateOnly(from)) {
		return apperrors.Validation("to date must not be before from date")
	}
	if types.DaysBetween(from, to) > constants.MaxDateWindowDays {
		return apperrors.Validation(fmt.Sprintf("OOS/OOI window must not exceed %d days", constants.MaxDateWindowDays))
	}
	return nil
}

// stockEnd is the exclusive end of the consumed nights; a same-day window consumes one night.
func stockEnd(from, to time.Time) time.Time {
	if to.Equal(from) {
		return from.AddDate(0, 0, 1)
	}
	return to
}

// SetOutOfOrder marks a room OOS or OOI for [From, To).
func (s *LifecycleService) SetOutOfOrder(ctx context.Context, prop types.PropertyContext, req OOORequest) (*models.OOOEntry, error) {
	if err := validateOOOWindow(req.RoomNo, req.Kind, req.From, req.To); err != nil {
		return nil, err
	}
	from, to := types.DateOnly(req.From), types.DateOnly(req.To)

	var entry *models.OOOEntry
	err := s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		room, err := s.lockRoom(ctx, tx, req.RoomNo)
		if err != nil {
			return err
		}
		if req.RoomTypeID != 0 && req.RoomTypeID != room.RoomTypeID {
			return apperrors.Validation(fmt.Sprintf("Room %d is not of room type %d.", room.RoomNo, req.RoomTypeID))
		}
		roomTypeID := room.RoomTypeID
		if err := tx.LockRoomTypes(ctx, s.availability.CapacityRoomType(ctx, prop, roomTypeID)); err != nil {
			return err
		}

		existing, err := tx.ListOOOEntries(ctx, room.RoomNo)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperrors.Conflict("Already set as OOS/OOI in another date.")
		}
		if curFrom, curTo, ok := room.OOOWindow(); ok && Overlaps(from, to, types.DateOnly(curFrom), types.DateOnly(curTo)) {
			return apperrors.Conflict(fmt.Sprintf("Room %d is already marked OOS/OOI from %s to %s.",
				room.RoomNo, fmtDate(curFrom), fmtDate(curTo)))
		}

		updated := *room
		change := models.OOOWindowChange{Kind: req.Kind, From: from, To: to, Remark: req.Remark, Actor: prop.Actor}
		if err := models.GetRoomState(room).MarkOutOfOrder(&updated, change); err != nil {
			return err
		}

		overlap, err := s.conflicts.WithRepository(tx).CheckOverlap(ctx, prop, OverlapQuery{
			RoomNo: room.RoomNo, RoomTypeID: roomTypeID, From: from, To: to,
		})
		if err != nil {
			return err
		}
		if !overlap.Allowed {
			return apperrors.Conflict(overlap.Reason)
		}

		entry = &models.OOOEntry{
			RoomNo:        room.RoomNo,
			RoomTypeID:    roomTypeID,
			FromDate:      from,
			ToDate:        to,
			Kind:          req.Kind,
			Remark:        req.Remark,
			CreatedBy:     prop.Actor,
			TransactionNo: "OOO" + s.ids.Generate().String(),
		}
		if err := tx.CreateOOOEntry(ctx, entry); err != nil {
			return err
		}

		nights := types.Nights(from, stockEnd(from, to))
		records := make([]models.StockRecord, 0, len(nights))
		for _, d := range nights {
			records = append(records, models.StockRecord{
				TransactionNo:    entry.TransactionNo,
				RoomNo:           room.RoomNo,
				RoomTypeID:       roomTypeID,
				StayDate:         d,
				IsStay:           true,
				IsOutOfOrder:     req.Kind == models.OOOKindOutOfService,
				IsOutOfInventory: req.Kind == models.OOOKindOutOfInventory,
			})
		}
		if err := tx.InsertStockRecords(ctx, records); err != nil {
			return err
		}

		if err := tx.SaveRoom(ctx, &updated); err != nil {
			return err
		}
		return s.audit.LogRoomStatusChange(ctx, tx, prop, RoomStatusChange{
			Before: *room, After: updated,
			Metadata: map[string]interface{}{
				"action": "set_ooo", "entryId": entry.ID, "kind": req.Kind,
				"from": fmtDate(from), "to": fmtDate(to), "remark": req.Remark,
			},
		})
	})
	if err != nil {
		return nil, s.wrap(prop, "set out of order", err)
	}

	s.logger.Info("room %d set %s from %s to %s by %s", entry.RoomNo, entry.Kind, fmtDate(from), fmtDate(to), prop.Actor)
	s.notify(prop, notification.AvailabilityChange{
		RoomTypeID: entry.RoomTypeID, RoomNo: entry.RoomNo, From: from, To: stockEnd(from, to), Reason: "set_" + string(entry.Kind),
	})
	return entry, nil
}

// RemoveOutOfOrder clears an OOS/OOI mark and returns the room to Vacant Dirty.
func (s *LifecycleService) RemoveOutOfOrder(ctx context.Context, prop types.PropertyContext, req RemoveOOORequest) (*models.Room, error) {
	if req.RoomNo <= 0 {
		return nil, apperrors.Validation("room number is required")
	}
	if !req.Kind.Valid() {
		return nil, apperrors.Validation("kind must be OOS or OOI")
	}
	if (req.From == nil) != (req.To == nil) {
		return nil, apperrors.Validation("from and to must be given together")
	}
	if req.From != nil && types.DateOnly(*req.To).Before(types.DateOnly(*req.From)) {
		return nil, apperrors.Validation("to date must not be before from date")
	}

	var (
		updated  models.Room
		from, to time.Time
	)
	err := s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		room, err := s.lockRoom(ctx, tx, req.RoomNo)
		if err != nil {
			return err
		}
		updated = *room
		if err := models.GetRoomState(room).ClearOutOfOrder(&updated, req.Kind); err != nil {
			return err
		}

		if req.From != nil {
			from, to = types.DateOnly(*req.From), types.DateOnly(*req.To)
		} else {
			start, end, ok := room.OOOWindow()
			if !ok {
				return apperrors.State(fmt.Sprintf("Room %d has no recorded %s window.", room.RoomNo, req.Kind))
			}
			from, to = types.DateOnly(start), types.DateOnly(end)
		}

		entry, err := tx.FindOOOEntry(ctx, room.RoomNo, req.Kind, from, to)
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.State(fmt.Sprintf("No %s entry for room %d from %s to %s.",
				req.Kind, room.RoomNo, fmtDate(from), fmtDate(to)))
		}
		if err != nil {
			return err
		}
		if err := tx.DeleteOOOEntry(ctx, entry.ID); err != nil {
			return err
		}
		if _, err := tx.DeleteStockRecords(ctx, repositories.StockFilter{
			TransactionNo:  entry.TransactionNo,
			RoomNo:         room.RoomNo,
			OutOfOrder:     req.Kind == models.OOOKindOutOfService,
			OutOfInventory: req.Kind == models.OOOKindOutOfInventory,
		}); err != nil {
			return err
		}

		if err := tx.SaveRoom(ctx, &updated); err != nil {
			return err
		}
		return s.audit.LogRoomStatusChange(ctx, tx, prop, RoomStatusChange{
			Before: *room, After: updated,
			Metadata: map[string]interface{}{
				"action": "remove_ooo", "entryId": entry.ID, "kind": req.Kind,
				"from": fmtDate(from), "to": fmtDate(to), "remark": "Via OOS/OOI",
			},
		})
	})
	if err != nil {
		return nil, s.wrap(prop, "remove out of order", err)
	}

	s.logger.Info("room %d %s removed by %s", updated.RoomNo, req.Kind, prop.Actor)
	s.notify(prop, notification.AvailabilityChange{
		RoomTypeID: updated.RoomTypeID, RoomNo: updated.RoomNo, From: from, To: stockEnd(from, to), Reason: "remove_" + string(req.Kind),
	})
	return &updated, nil
}

// notify is fire-and-forget: failures are logged, never returned.
func (s *LifecycleService) notify(prop types.PropertyContext, change notification.AvailabilityChange) {
	if s.notifier == nil {
		return
	}
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if s.settings != nil && !s.settings.Enabled(ctx, prop, constants.SettingUpdateOTAAvailability) {
			return
		}
		if err := s.notifier.NotifyAvailabilityChanged(ctx, prop, change); err != nil {
			s.logger.Error("notify availability change room type %d request=%s: %v", change.RoomTypeID, prop.RequestID, err)
		}
	})
}
