package repositories

import (
	"context"
	"time"

	"pms/models"

	"github.com/shopspring/decimal"
)

// StockQuery selects stay consumption for a room type over [From, To).
// RoomTypeID 0 means every room type.
type StockQuery struct {
	RoomTypeID         uint
	From               time.Time
	To                 time.Time
	ExcludeTransaction string
}

// RoomNightQuery selects existing claims on one room over [From, To).
type RoomNightQuery struct {
	RoomNo             int
	From               time.Time
	To                 time.Time
	ExcludeTransaction string
}

// StockFilter identifies stock rows to delete.
type StockFilter struct {
	TransactionNo  string
	RoomNo         int
	OutOfOrder     bool
	OutOfInventory bool
}

// ChargeQuery selects posted charge lines. An empty FolioNo matches every folio of the transaction.
type ChargeQuery struct {
	TransactionNo string
	FolioNo       string
}

type RoomRepository interface {
	GetRoom(ctx context.Context, roomNo int) (*models.Room, error)
	// LockRoom reads the room and holds a row lock until the surrounding transaction ends.
	LockRoom(ctx context.Context, roomNo int) (*models.Room, error)
	// LockRoomTypes serialises capacity-affecting commits; 0 locks every active type.
	LockRoomTypes(ctx context.Context, roomTypeID uint) error
	GetRoomType(ctx context.Context, id uint) (*models.RoomType, error)
	SaveRoom(ctx context.Context, room *models.Room) error
	CountSellableRooms(ctx context.Context, roomTypeID uint) (int64, error)
}

type StockRepository interface {
	SumStayByDate(ctx context.Context, q StockQuery) ([]models.NightCount, error)
	SumBlocksByDate(ctx context.Context, roomTypeID uint, from, to time.Time) (map[time.Time]int64, error)
	ListMultiRoomAssignments(ctx context.Context, roomTypeID uint, from, to time.Time) ([]models.MultiRoomAssignment, error)
	FirstReservationNight(ctx context.Context, q RoomNightQuery) (*time.Time, error)
	FirstInHouseNight(ctx context.Context, q RoomNightQuery) (*time.Time, error)
	ListRoomStock(ctx context.Context, roomNo int, from, to time.Time) ([]models.StockRecord, error)
	InsertStockRecords(ctx context.Context, records []models.StockRecord) error
	DeleteStockRecords(ctx context.Context, f StockFilter) (int64, error)
}

type OccupancyRepository interface {
	ListReservationOccupancy(ctx context.Context, roomNo int) ([]models.Occupancy, error)
	ListInHouseOccupancy(ctx context.Context, roomNo int) ([]models.Occupancy, error)
	ListAssignmentOccupancy(ctx context.Context, roomNo int, from time.Time) ([]models.Occupancy, error)
	FindReservationArriving(ctx context.Context, roomNo int, date time.Time) (*models.Reservation, error)
	FindInHouseTransaction(ctx context.Context, roomNo int) (*models.Transaction, error)
	GetReservation(ctx context.Context, no string) (*models.Reservation, error)
	GetTransaction(ctx context.Context, no string) (*models.Transaction, error)
}

type OOORepository interface {
	ListOOOEntries(ctx context.Context, roomNo int) ([]models.OOOEntry, error)
	FindOOOEntry(ctx context.Context, roomNo int, kind models.OOOKind, from, to time.Time) (*models.OOOEntry, error)
	CreateOOOEntry(ctx context.Context, entry *models.OOOEntry) error
	DeleteOOOEntry(ctx context.Context, id uint) error
}

type FolioRepository interface {
	SumCharges(ctx context.Context, q ChargeQuery) (map[models.ChargeKind]decimal.Decimal, error)
	GetFolio(ctx context.Context, folioNo, transactionNo string) (*models.Folio, error)
	// CreateFolio inserts unless the key exists; it reports whether a row was written.
	CreateFolio(ctx context.Context, folio *models.Folio) (bool, error)
	UpdateFolio(ctx context.Context, folio *models.Folio) error
	NextSequence(ctx context.Context, key string) (int64, error)
}

type ReferenceRepository interface {
	GetCurrency(ctx context.Context, id string) (*models.Currency, error)
	LatestExchangeRate(ctx context.Context, currencyID string, asOf time.Time) (*models.ExchangeRate, error)
	GetSetting(ctx context.Context, name string) (*models.Setting, error)
}

type AuditRepository interface {
	CreateRoomStatusLog(ctx context.Context, log *models.RoomStatusLog) error
	CreateOTAAvailability(ctx context.Context, row *models.OTAAvailability) error
	PurgeOTAAvailability(ctx context.Context, olderThan time.Time) (int64, error)
}

// Repository is the full storage surface of the inventory engine.
type Repository interface {
	RoomRepository
	StockRepository
	OccupancyRepository
	OOORepository
	FolioRepository
	ReferenceRepository
	AuditRepository

	// Transaction runs fn atomically; any error returned by fn rolls every write back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}
