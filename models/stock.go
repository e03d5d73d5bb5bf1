package models

import (
	"time"
)

// StockRecord is one consumed night for a room.
type StockRecord struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	TransactionNo    string    `json:"transactionNo" gorm:"size:32;not null;uniqueIndex:idx_stock_txn_room_date,priority:1"`
	RoomNo           int       `json:"roomNo" gorm:"not null;uniqueIndex:idx_stock_txn_room_date,priority:2;index:idx_stock_room_date"`
	StayDate         time.Time `json:"stayDate" gorm:"type:date;not null;uniqueIndex:idx_stock_txn_room_date,priority:3;index:idx_stock_room_date;index:idx_stock_type_date"`
	RoomTypeID       uint      `json:"roomTypeId" gorm:"index:idx_stock_type_date"`
	IsStay           bool      `json:"isStay"`
	IsReservation    bool      `json:"isReservation"`
	IsOutOfOrder     bool      `json:"isOutOfOrder"`
	IsOutOfInventory bool      `json:"isOutOfInventory"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// NightCount is the consumption aggregated for one stay-date.
type NightCount struct {
	StayDate       time.Time `json:"stayDate"`
	Stay           int64     `json:"stay"`
	OutOfOrder     int64     `json:"outOfOrder"`
	OutOfInventory int64     `json:"outOfInventory"`
}

// OOOKind distinguishes out-of-service from out-of-inventory marks.
type OOOKind string

const (
	OOOKindOutOfService   OOOKind = "OOS"
	OOOKindOutOfInventory OOOKind = "OOI"
)

func (k OOOKind) Valid() bool {
	return k == OOOKindOutOfService || k == OOOKindOutOfInventory
}

func (k OOOKind) Short() string { return string(k) }

func (k OOOKind) RoomStatus() RoomStatus {
	if k == OOOKindOutOfInventory {
		return RoomStatusOutOfInventory
	}
	return RoomStatusOutOfOrder
}

func (k OOOKind) State() LifecycleState {
	if k == OOOKindOutOfInventory {
		return StateOutOfInventory
	}
	return StateOutOfOrder
}

// OOOEntry is an out-of-order window on a room.
type OOOEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	RoomNo        int       `json:"roomNo" gorm:"index;not null"`
	RoomTypeID    uint      `json:"roomTypeId"`
	FromDate      time.Time `json:"fromDate" gorm:"type:date;not null"`
	ToDate        time.Time `json:"toDate" gorm:"type:date;not null"`
	Kind          OOOKind   `json:"kind" gorm:"size:3;not null"`
	Remark        string    `json:"remark"`
	CreatedBy     string    `json:"createdBy"`
	TransactionNo string    `json:"transactionNo" gorm:"size:32"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (OOOEntry) TableName() string { return "ooo_entries" }

// BlockState is the lifecycle of a group block.
type BlockState int

const (
	BlockStatePending BlockState = iota + 1
	BlockStateConfirmed
	BlockStateReleased
)

type Block struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	BlockNo    string       `json:"blockNo" gorm:"size:32;uniqueIndex"`
	RoomTypeID uint         `json:"roomTypeId" gorm:"index"`
	State      BlockState   `json:"state"`
	Nights     []BlockNight `json:"nights" gorm:"foreignKey:BlockID"`
	CreatedAt  time.Time    `json:"createdAt" gorm:"autoCreateTime"`
}

type BlockNight struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	BlockID  uint      `json:"blockId" gorm:"index"`
	StayDate time.Time `json:"stayDate" gorm:"type:date;index"`
	Quantity int       `json:"quantity"`
}

// MultiRoomAssignment moves a booking into another room type for part of its stay.
type MultiRoomAssignment struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	TransactionNo      string    `json:"transactionNo" gorm:"size:32;index"`
	RoomNo             int       `json:"roomNo" gorm:"index"`
	GuestName          string    `json:"guestName"`
	OriginalRoomTypeID uint      `json:"originalRoomTypeId"`
	RoomTypeID         uint      `json:"roomTypeId"`
	FromDate           time.Time `json:"fromDate" gorm:"type:date"`
	ToDate             time.Time `json:"toDate" gorm:"type:date"`
	DepartDate         time.Time `json:"departDate" gorm:"type:date"`
	Active             bool      `json:"active"`
}

// Consumption returns the capacity effect on roomTypeID for stay-date d: +1, -1 or 0.
func (m *MultiRoomAssignment) Consumption(roomTypeID uint, d time.Time) int64 {
	if !m.Active || m.RoomTypeID == m.OriginalRoomTypeID {
		return 0
	}
	if d.Before(m.FromDate) || !d.Before(m.ToDate) || !d.Before(m.DepartDate) {
		return 0
	}
	switch roomTypeID {
	case m.RoomTypeID:
		return 1
	case m.OriginalRoomTypeID:
		return -1
	}
	return 0
}
