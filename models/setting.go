package models

import (
	"time"

	"gorm.io/datatypes"
)

type Setting struct {
	Name      string    `json:"name" gorm:"primaryKey;size:64"`
	Value     string    `json:"value"`
	Active    bool      `json:"active" gorm:"default:true"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Sequence backs document number allocation; one row per key.
type Sequence struct {
	Key   string `gorm:"primaryKey;size:32"`
	Value int64
}

// RoomStatusLog is the audit trail of room lifecycle changes.
type RoomStatusLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	RoomNo    int            `json:"roomNo" gorm:"index"`
	OldState  LifecycleState `json:"oldState" gorm:"size:24"`
	NewState  LifecycleState `json:"newState" gorm:"size:24"`
	OldStatus RoomStatus     `json:"oldStatus"`
	NewStatus RoomStatus     `json:"newStatus"`
	Inspect   bool           `json:"inspect"`
	Actor     string         `json:"actor"`
	RequestID string         `json:"requestId" gorm:"size:36"`
	Metadata  datatypes.JSON `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt" gorm:"autoCreateTime"`
}

// OTAAvailability is an outbound availability change waiting for the channel manager.
type OTAAvailability struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	PropertyID    string    `json:"propertyId" gorm:"size:36"`
	RoomTypeID    uint      `json:"roomTypeId" gorm:"index"`
	InvTypeCode   string    `json:"invTypeCode" gorm:"size:16"`
	ArrivalDate   time.Time `json:"arrivalDate" gorm:"type:date"`
	DepartureDate time.Time `json:"departureDate" gorm:"type:date"`
	Processed     bool      `json:"processed" gorm:"index"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}

func (OTAAvailability) TableName() string { return "ota_availabilities" }

// AllModels lists every table owned by this service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&RoomType{}, &Room{}, &StockRecord{}, &OOOEntry{},
		&Block{}, &BlockNight{}, &MultiRoomAssignment{},
		&Reservation{}, &Transaction{},
		&Folio{}, &ChargeLine{},
		&Currency{}, &ExchangeRate{},
		&Setting{}, &Sequence{}, &RoomStatusLog{}, &OTAAvailability{},
	}
}
