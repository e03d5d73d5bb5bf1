package dto

import (
	"time"

	"pms/models"
)

type OverlapQuery struct {
	RoomTypeID uint   `form:"roomTypeId"`
	From       string `form:"from" binding:"required,datetime=2006-01-02"`
	To         string `form:"to" binding:"required,datetime=2006-01-02"`
}

type CalendarQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}

type HoldRequest struct {
	Remark string `json:"remark" binding:"max=255"`
}

type SetOOORequest struct {
	RoomTypeID uint   `json:"roomTypeId"`
	Kind       string `json:"kind" binding:"required,ooo_kind"`
	From       string `json:"from" binding:"required,datetime=2006-01-02"`
	To         string `json:"to" binding:"required,datetime=2006-01-02"`
	Remark     string `json:"remark" binding:"max=255"`
}

// RemoveOOOQuery locates the entry by from/to, or by the room's recorded window when both are empty.
type RemoveOOOQuery struct {
	Kind string `form:"kind" binding:"required,ooo_kind"`
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

type RoomStatusResponse struct {
	RoomNo     int                   `json:"roomNo"`
	RoomTypeID uint                  `json:"roomTypeId"`
	Status     models.RoomStatus     `json:"status"`
	StatusName string                `json:"statusName"`
	Label      string                `json:"label"`
	State      models.LifecycleState `json:"state"`
	IsHold     bool                  `json:"isHold"`
	HoldRemark string                `json:"holdRemark,omitempty"`
	OOOStart   *time.Time            `json:"oooStart,omitempty"`
	OOOEnd     *time.Time            `json:"oooEnd,omitempty"`
	OOORemark  string                `json:"oooRemark,omitempty"`
}

func NewRoomStatusResponse(room *models.Room) RoomStatusResponse {
	return RoomStatusResponse{
		RoomNo:     room.RoomNo,
		RoomTypeID: room.RoomTypeID,
		Status:     room.Status,
		StatusName: room.Status.String(),
		Label:      room.StatusLabel(),
		State:      models.GetRoomState(room).Name(),
		IsHold:     room.IsHold,
		HoldRemark: room.HoldRemark,
		OOOStart:   room.OOOStart,
		OOOEnd:     room.OOOEnd,
		OOORemark:  room.OOORemark,
	}
}

type CalendarNight struct {
	Date             string `json:"date"`
	TransactionNo    string `json:"transactionNo"`
	IsReservation    bool   `json:"isReservation"`
	IsOutOfOrder     bool   `json:"isOutOfOrder"`
	IsOutOfInventory bool   `json:"isOutOfInventory"`
}

type CalendarResponse struct {
	RoomNo int             `json:"roomNo"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Nights []CalendarNight `json:"nights"`
}
