package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus mirrors the booking subsystem's status codes.
type ReservationStatus int

const (
	ReservationStatusVoid       ReservationStatus = 0
	ReservationStatusTentative  ReservationStatus = 1
	ReservationStatusConfirmed  ReservationStatus = 2
	ReservationStatusGuaranteed ReservationStatus = 3
	ReservationStatusCancelled  ReservationStatus = 4
	ReservationStatusWaitlist   ReservationStatus = 5
	ReservationStatusDefinite   ReservationStatus = 6
	ReservationStatusCheckedIn  ReservationStatus = 7
	ReservationStatusNoShow     ReservationStatus = 8
)

// InactiveReservationStatuses no longer hold inventory through the reservation itself.
var InactiveReservationStatuses = []ReservationStatus{
	ReservationStatusVoid,
	ReservationStatusCancelled,
	ReservationStatusCheckedIn,
	ReservationStatusNoShow,
}

// HoldsInventory reports whether a reservation in this status still claims its room.
func (s ReservationStatus) HoldsInventory() bool {
	for _, inactive := range InactiveReservationStatuses {
		if s == inactive {
			return false
		}
	}
	return true
}

// TransactionStatus mirrors the front-office stay status codes.
type TransactionStatus int

const (
	TransactionStatusVoid       TransactionStatus = 4
	TransactionStatusInHouse    TransactionStatus = 5
	TransactionStatusCheckedOut TransactionStatus = 6
)

// Reservation is owned by the booking subsystem; only read here.
type Reservation struct {
	ReservationNo string            `json:"reservationNo" gorm:"primaryKey;size:32"`
	RoomNo        int               `json:"roomNo" gorm:"index"`
	RoomTypeID    uint              `json:"roomTypeId"`
	GuestName     string            `json:"guestName"`
	ArrivalDate   time.Time         `json:"arrivalDate" gorm:"type:date"`
	DepartureDate time.Time         `json:"departureDate" gorm:"type:date"`
	Status        ReservationStatus `json:"status"`
	CurrencyID    string            `json:"currencyId" gorm:"size:3"`
	CreditLimit   decimal.Decimal   `json:"creditLimit" gorm:"type:numeric(20,4);default:0"`
}

// Transaction is an in-house stay, owned by the front-office subsystem.
type Transaction struct {
	TransactionNo string            `json:"transactionNo" gorm:"primaryKey;size:32"`
	ReservationNo string            `json:"reservationNo" gorm:"size:32"`
	RoomNo        int               `json:"roomNo" gorm:"index"`
	RoomTypeID    uint              `json:"roomTypeId"`
	GuestName     string            `json:"guestName"`
	ArrivalDate   time.Time         `json:"arrivalDate" gorm:"type:date"`
	DepartureDate time.Time         `json:"departureDate" gorm:"type:date"`
	Status        TransactionStatus `json:"status"`
	CurrencyID    string            `json:"currencyId" gorm:"size:3"`
	CreditLimit   decimal.Decimal   `json:"creditLimit" gorm:"type:numeric(20,4);default:0"`
}

// IsReservationNo reports whether a transaction number belongs to a reservation.
func IsReservationNo(no string) bool {
	return strings.HasPrefix(strings.ToUpper(no), "R")
}

// Occupancy is one interval during which a room is claimed.
type Occupancy struct {
	Source    string    `json:"source"`
	Reference string    `json:"reference"`
	GuestName string    `json:"guestName"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}
