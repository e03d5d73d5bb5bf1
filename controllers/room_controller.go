package controllers

import (
	"context"
	stderrors "errors"
	"fmt"

	"pms/constants"
	"pms/dto"
	"pms/errors"
	"pms/middleware"
	"pms/models"
	"pms/repositories"
	"pms/response"
	"pms/services"
	"pms/validator"

	"github.com/gin-gonic/gin"
)

type RoomController struct {
	Repo      repositories.Repository
	Conflicts *services.ConflictService
	Lifecycle *services.LifecycleService
}

func NewRoomController(repo repositories.Repository, conflicts *services.ConflictService, lifecycle *services.LifecycleService) RoomController {
	return RoomController{
		Repo:      repo,
		Conflicts: conflicts,
		Lifecycle: lifecycle,
	}
}

func (r RoomController) loadRoom(ctx context.Context, roomNo int) (*models.Room, error) {
	room, err := r.Repo.GetRoom(ctx, roomNo)
	if stderrors.Is(err, errors.ErrNotFound) {
		return nil, errors.NewAppError(errors.ErrCodeNotFound, fmt.Sprintf("Room %d not found.", roomNo), err)
	}
	if err != nil {
		return nil, errors.Persistence("GetRoom", err)
	}
	return room, nil
}

// Overlap reports whether the room can take a stay over [from, to).
func (r RoomController) Overlap(c *gin.Context) {
	roomNo, err := validator.ParseRoomNo(c.Param("roomNo"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	var q dto.OverlapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	from, to, err := validator.ParseDateRange(q.From, q.To, false)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := r.Conflicts.CheckOverlap(c.Request.Context(), middleware.PropertyFrom(c), services.OverlapQuery{
		RoomNo:     roomNo,
		RoomTypeID: q.RoomTypeID,
		From:       from,
		To:         to,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, result)
}

// Calendar lists the nights the room has consumed in [from, to).
func (r RoomController) Calendar(c *gin.Context) {
	roomNo, err := validator.ParseRoomNo(c.Param("roomNo"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	var q dto.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	from, to, err := validator.ParseDateRange(q.From, q.To, true)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	if _, err := r.loadRoom(ctx, roomNo); err != nil {
		_ = c.Error(err)
		return
	}
	records, err := r.Repo.ListRoomStock(ctx, roomNo, from, to)
	if err != nil {
		_ = c.Error(errors.Persistence("ListRoomStock", err))
		return
	}

	nights := make([]dto.CalendarNight, 0, len(records))
	for _, rec := range records {
		nights = append(nights, dto.CalendarNight{
			Date:             rec.StayDate.Format(constants.DateLayout),
			TransactionNo:    rec.TransactionNo,
			IsReservation:    rec.IsReservation,
			IsOutOfOrder:     rec.IsOutOfOrder,
			IsOutOfInventory: rec.IsOutOfInventory,
		})
	}
	response.Success(c, dto.CalendarResponse{
		RoomNo: roomNo,
		From:   q.From,
		To:     q.To,
		Nights: nights,
	})
}

func (r RoomController) Status(c *gin.Context) {
	roomNo, err := validator.ParseRoomNo(c.Param("roomNo"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	room, err := r.loadRoom(c.Request.Context(), roomNo)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, dto.NewRoomStatusResponse(room))
}

func (r RoomController) SetHold(c *gin.Context) {
	roomNo, err := validator.ParseRoomNo(c.Param("roomNo"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.HoldRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(validator.BindingError(err))
			return
		}
	}

	room, err := r.Lifecycle.SetHold(c.Request.Context(), middleware.PropertyFrom(c), services.HoldRequest{
		RoomNo: roomNo,
		Remark: req.Remark,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, dto.NewRoomStatusResponse(room))
}

func (r RoomController) UnsetHold(c *gin.Context) {
	roomNo, err := validator.ParseRoomNo(c.Param("roomNo"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	room, err := r.Lifecycle.UnsetHold(c.Request.Context(), middleware.PropertyFrom(c), roomNo)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, dto.NewRoomStatusResponse(room))
}

// SetOOO takes the room out of service or out of inventory for [from, to].
func (r RoomController) SetOOO(c *gin.Context) {
	roomNo, err := validator.ParseRoomNo(c.Param("roomNo"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.SetOOORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	kind, err := validator.ValidateOOOKind(req.Kind)
	if err != nil {
		_ = c.Error(err)
		return
	}
	from, to, err := validator.ParseDateRange(req.From, req.To, false)
	if err != nil {
		_ = c.Error(err)
		return
	}

	entry, err := r.Lifecycle.SetOutOfOrder(c.Request.Context(), middleware.PropertyFrom(c), services.OOORequest{
		RoomNo:     roomNo,
		RoomTypeID: req.RoomTypeID,
		Kind:       kind,
		From:       from,
		To:         to,
		Remark:     req.Remark,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Created(c, entry)
}

func (r RoomController) RemoveOOO(c *gin.Context) {
	roomNo, err := validator.ParseRoomNo(c.Param("roomNo"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	var q dto.RemoveOOOQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	kind, err := validator.ValidateOOOKind(q.Kind)
	if err != nil {
		_ = c.Error(err)
		return
	}
	from, err := validator.ParseOptionalDate("from", q.From)
	if err != nil {
		_ = c.Error(err)
		return
	}
	to, err := validator.ParseOptionalDate("to", q.To)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if (from == nil) != (to == nil) {
		_ = c.Error(errors.Validation("from and to must be given together"))
		return
	}

	room, err := r.Lifecycle.RemoveOutOfOrder(c.Request.Context(), middleware.PropertyFrom(c), services.RemoveOOORequest{
		RoomNo: roomNo,
		Kind:   kind,
		From:   from,
		To:     to,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, dto.NewRoomStatusResponse(room))
}
