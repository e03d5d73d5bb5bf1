package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// RoomStatus is the persisted housekeeping/inventory status of a physical room.
type RoomStatus int

const (
	RoomStatusVacantClean RoomStatus = iota + 1
	RoomStatusVacantDirty
	RoomStatusOccupied
	RoomStatusOutOfOrder
	RoomStatusOutOfInventory
	RoomStatusInactive
)

var roomStatusNames = map[RoomStatus]string{
	RoomStatusVacantClean:    "Vacant Clean",
	RoomStatusVacantDirty:    "Vacant Dirty",
	RoomStatusOccupied:       "Occupied",
	RoomStatusOutOfOrder:     "Out of Service",
	RoomStatusOutOfInventory: "Out of Inventory",
	RoomStatusInactive:       "Inactive",
}

func (s RoomStatus) String() string {
	if name, ok := roomStatusNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s RoomStatus) IsVacant() bool {
	return s == RoomStatusVacantClean || s == RoomStatusVacantDirty
}

type RoomType struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Code       string         `json:"code" gorm:"size:16;uniqueIndex"`
	Name       string         `json:"name"`
	Active     bool           `json:"active" gorm:"default:true"`
	Amenities  pq.StringArray `json:"amenities" gorm:"type:text[]"`
	Attributes datatypes.JSON `json:"attributes"`
	CreatedAt  time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

type Room struct {
	RoomNo     int            `json:"roomNo" gorm:"primaryKey;autoIncrement:false"`
	RoomTypeID uint           `json:"roomTypeId" gorm:"index"`
	RoomType   RoomType       `json:"-" gorm:"foreignKey:RoomTypeID"`
	Floor      int            `json:"floor"`
	Features   pq.StringArray `json:"features" gorm:"type:text[]"`
	Status     RoomStatus     `json:"status" gorm:"not null;default:1"`

	IsHold     bool   `json:"isHold"`
	HoldRemark string `json:"holdRemark"`
	HoldBy     string `json:"holdBy"`
	IsInspect  bool   `json:"isInspect"`

	OOOStart  *time.Time `json:"oooStart" gorm:"type:date"`
	OOOEnd    *time.Time `json:"oooEnd" gorm:"type:date"`
	OOORemark string     `json:"oooRemark"`
	OOOBy     string     `json:"oooBy"`

	// MergeTo points at the room this one was merged into; merged rooms carry no capacity.
	MergeTo *int `json:"mergeTo"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// IsSellable reports whether the room contributes to its type's capacity.
func (r *Room) IsSellable() bool {
	return r.RoomNo != 0 && r.Status != RoomStatusInactive && r.MergeTo == nil
}

// StatusLabel is the front-desk label for the room.
func (r *Room) StatusLabel() string {
	switch {
	case r.Status == RoomStatusOutOfOrder:
		return "Out of Service"
	case r.Status == RoomStatusOutOfInventory:
		return "Out of Inventory"
	case r.IsHold:
		return "HOLD"
	case r.IsInspect:
		return r.Status.String() + " (Inspect)"
	}
	return r.Status.String()
}

// OOOWindow returns the recorded out-of-order window, if any.
func (r *Room) OOOWindow() (from, to time.Time, ok bool) {
	if r.OOOStart == nil || r.OOOEnd == nil {
		return time.Time{}, time.Time{}, false
	}
	return *r.OOOStart, *r.OOOEnd, true
}
