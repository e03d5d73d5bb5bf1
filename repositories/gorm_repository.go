package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "pms/errors"
	"pms/models"
	"pms/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const stockBatchSize = 50

// GormRepository implements Repository on Postgres.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
	}
	return err
}

// ---- rooms

func (r *GormRepository) GetRoom(ctx context.Context, roomNo int) (*models.Room, error) {
	var room models.Room
	if err := r.conn(ctx).First(&room, "room_no = ?", roomNo).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (r *GormRepository) LockRoom(ctx context.Context, roomNo int) (*models.Room, error) {
	var room models.Room
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, "room_no = ?", roomNo).Error
	if err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (r *GormRepository) LockRoomTypes(ctx context.Context, roomTypeID uint) error {
	var ids []uint
	q := r.conn(ctx).Model(&models.RoomType{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("active = ?", true)
	if roomTypeID != 0 {
		q = q.Where("id = ?", roomTypeID)
	}
	return q.Order("id").Pluck("id", &ids).Error
}

func (r *GormRepository) GetRoomType(ctx context.Context, id uint) (*models.RoomType, error) {
	var rt models.RoomType
	if err := r.conn(ctx).First(&rt, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rt, nil
}

func (r *GormRepository) SaveRoom(ctx context.Context, room *models.Room) error {
	return translate(r.conn(ctx).Omit("RoomType").Save(room).Error)
}

func (r *GormRepository) CountSellableRooms(ctx context.Context, roomTypeID uint) (int64, error) {
	var count int64
	q := r.conn(ctx).Model(&models.Room{}).
		Joins("JOIN room_types ON room_types.id = rooms.room_type_id").
		Where("rooms.room_no <> 0 AND rooms.status <> ? AND rooms.merge_to IS NULL AND room_types.active = ?",
			models.RoomStatusInactive, true)
	if roomTypeID != 0 {
		q = q.Where("rooms.room_type_id = ?", roomTypeID)
	}
	err := q.Count(&count).Error
	return count, err
}

// ---- stock ledger

func (r *GormRepository) SumStayByDate(ctx context.Context, sq StockQuery) ([]models.NightCount, error) {
	var rows []models.NightCount
	q := r.conn(ctx).Model(&models.StockRecord{}).
		Select(`stay_date,
			COUNT(*) AS stay,
			SUM(CASE WHEN is_out_of_order THEN 1 ELSE 0 END) AS out_of_order,
			SUM(CASE WHEN is_out_of_inventory THEN 1 ELSE 0 END) AS out_of_inventory`).
		Where("is_stay = ? AND stay_date >= ? AND stay_date < ?", true, sq.From, sq.To)
	if sq.RoomTypeID != 0 {
		q = q.Where("room_type_id = ?", sq.RoomTypeID)
	}
	if sq.ExcludeTransaction != "" {
		q = q.Where("transaction_no <> ?", sq.ExcludeTransaction)
	}
	if err := q.Group("stay_date").Order("stay_date").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].StayDate = types.DateOnly(rows[i].StayDate)
	}
	return rows, nil
}

func (r *GormRepository) SumBlocksByDate(ctx context.Context, roomTypeID uint, from, to time.Time) (map[time.Time]int64, error) {
	var rows []struct {
		StayDate time.Time
		Quantity int64
	}
	q := r.conn(ctx).Table("block_nights").
		Select("block_nights.stay_date, SUM(block_nights.quantity) AS quantity").
		Joins("JOIN blocks ON blocks.id = block_nights.block_id").
		Where("blocks.state = ? AND block_nights.stay_date >= ? AND block_nights.stay_date < ?",
			models.BlockStateConfirmed, from, to)
	if roomTypeID != 0 {
		q = q.Where("blocks.room_type_id = ?", roomTypeID)
	}
	if err := q.Group("block_nights.stay_date").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[time.Time]int64, len(rows))
	for _, row := range rows {
		out[types.DateOnly(row.StayDate)] += row.Quantity
	}
	return out, nil
}

func (r *GormRepository) ListMultiRoomAssignments(ctx context.Context, roomTypeID uint, from, to time.Time) ([]models.MultiRoomAssignment, error) {
	var rows []models.MultiRoomAssignment
	q := r.conn(ctx).
		Where("active = ? AND depart_date >= ? AND from_date < ?", true, from, to)
	if roomTypeID != 0 {
		q = q.Where("room_type_id = ? OR original_room_type_id = ?", roomTypeID, roomTypeID)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *GormRepository) FirstReservationNight(ctx context.Context, nq RoomNightQuery) (*time.Time, error) {
	q := r.conn(ctx).Model(&models.StockRecord{}).
		Joins("JOIN reservations ON reservations.reservation_no = stock_records.transaction_no").
		Where("stock_records.room_no = ? AND stock_records.is_stay = ?", nq.RoomNo, true).
		Where("stock_records.stay_date >= ? AND stock_records.stay_date < ?", nq.From, nq.To).
		Where("reservations.status NOT IN ?", models.InactiveReservationStatuses)
	return firstNight(q, nq.ExcludeTransaction)
}

func (r *GormRepository) FirstInHouseNight(ctx context.Context, nq RoomNightQuery) (*time.Time, error) {
	q := r.conn(ctx).Model(&models.StockRecord{}).
		Joins("JOIN transactions ON transactions.transaction_no = stock_records.transaction_no").
		Where("stock_records.room_no = ? AND stock_records.is_stay = ?", nq.RoomNo, true).
		Where("stock_records.stay_date >= ? AND stock_records.stay_date < ?", nq.From, nq.To).
		Where("transactions.status = ? AND stock_records.stay_date <> transactions.arrival_date",
			models.TransactionStatusInHouse)
	return firstNight(q, nq.ExcludeTransaction)
}

func firstNight(q *gorm.DB, exclude string) (*time.Time, error) {
	if exclude != "" {
		q = q.Where("stock_records.transaction_no <> ?", exclude)
	}
	var dates []time.Time
	if err := q.Order("stock_records.stay_date").Limit(1).Pluck("stock_records.stay_date", &dates).Error; err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}
	d := types.DateOnly(dates[0])
	return &d, nil
}

func (r *GormRepository) ListRoomStock(ctx context.Context, roomNo int, from, to time.Time) ([]models.StockRecord, error) {
	var rows []models.StockRecord
	err := r.conn(ctx).
		Where("room_no = ? AND stay_date >= ? AND stay_date < ?", roomNo, from, to).
		Order("stay_date, transaction_no").
		Find(&rows).Error
	return rows, err
}

func (r *GormRepository) InsertStockRecords(ctx context.Context, records []models.StockRecord) error {
	if len(records) == 0 {
		return nil
	}
	return translate(r.conn(ctx).CreateInBatches(records, stockBatchSize).Error)
}

func (r *GormRepository) DeleteStockRecords(ctx context.Context, f StockFilter) (int64, error) {
	q := r.conn(ctx).Where("transaction_no = ? AND room_no = ?", f.TransactionNo, f.RoomNo)
	if f.OutOfOrder {
		q = q.Where("is_out_of_order = ?", true)
	}
	if f.OutOfInventory {
		q = q.Where("is_out_of_inventory = ?", true)
	}
	res := q.Delete(&models.StockRecord{})
	return res.RowsAffected, res.Error
}

// ---- occupancy

func (r *GormRepository) ListReservationOccupancy(ctx context.Context, roomNo int) ([]models.Occupancy, error) {
	var rows []models.Reservation
	err := r.conn(ctx).
		Where("room_no = ? AND status NOT IN ?", roomNo, models.InactiveReservationStatuses).
		Order("arrival_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Occupancy, 0, len(rows))
	for _, res := range rows {
		out = append(out, models.Occupancy{
			Source: "reservation", Reference: res.ReservationNo, GuestName: res.GuestName,
			From: types.DateOnly(res.ArrivalDate), To: types.DateOnly(res.DepartureDate),
		})
	}
	return out, nil
}

func (r *GormRepository) ListInHouseOccupancy(ctx context.Context, roomNo int) ([]models.Occupancy, error) {
	var rows []models.Transaction
	err := r.conn(ctx).
		Where("room_no = ? AND status = ?", roomNo, models.TransactionStatusInHouse).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Occupancy, 0, len(rows))
	for _, t := range rows {
		out = append(out, models.Occupancy{
			Source: "in-house", Reference: t.TransactionNo, GuestName: t.GuestName,
			From: types.DateOnly(t.ArrivalDate), To: types.DateOnly(t.DepartureDate),
		})
	}
	return out, nil
}

func (r *GormRepository) ListAssignmentOccupancy(ctx context.Context, roomNo int, from time.Time) ([]models.Occupancy, error) {
	var rows []models.MultiRoomAssignment
	err := r.conn(ctx).
		Where("room_no = ? AND active = ? AND depart_date >= ?", roomNo, true, from).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Occupancy, 0, len(rows))
	for _, m := range rows {
		out = append(out, models.Occupancy{
			Source: "multi-room", Reference: m.TransactionNo, GuestName: m.GuestName,
			From: types.DateOnly(m.FromDate), To: types.DateOnly(m.ToDate),
		})
	}
	return out, nil
}

func (r *GormRepository) FindReservationArriving(ctx context.Context, roomNo int, date time.Time) (*models.Reservation, error) {
	var res models.Reservation
	err := r.conn(ctx).
		Where("room_no = ? AND arrival_date = ? AND status NOT IN ?", roomNo, date, models.InactiveReservationStatuses).
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormRepository) FindInHouseTransaction(ctx context.Context, roomNo int) (*models.Transaction, error) {
	var t models.Transaction
	err := r.conn(ctx).
		Where("room_no = ? AND status = ?", roomNo, models.TransactionStatusInHouse).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepository) GetReservation(ctx context.Context, no string) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.conn(ctx).First(&res, "reservation_no = ?", no).Error; err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

func (r *GormRepository) GetTransaction(ctx context.Context, no string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.conn(ctx).First(&t, "transaction_no = ?", no).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// ---- out of order

func (r *GormRepository) ListOOOEntries(ctx context.Context, roomNo int) ([]models.OOOEntry, error) {
	var rows []models.OOOEntry
	err := r.conn(ctx).Where("room_no = ?", roomNo).Order("from_date").Find(&rows).Error
	return rows, err
}

func (r *GormRepository) FindOOOEntry(ctx context.Context, roomNo int, kind models.OOOKind, from, to time.Time) (*models.OOOEntry, error) {
	var entry models.OOOEntry
	err := r.conn(ctx).
		Where("room_no = ? AND kind = ? AND from_date = ? AND to_date = ?", roomNo, kind, from, to).
		First(&entry).Error
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (r *GormRepository) CreateOOOEntry(ctx context.Context, entry *models.OOOEntry) error {
	return translate(r.conn(ctx).Create(entry).Error)
}

func (r *GormRepository) DeleteOOOEntry(ctx context.Context, id uint) error {
	return r.conn(ctx).Delete(&models.OOOEntry{}, id).Error
}

// ---- folio

func (r *GormRepository) SumCharges(ctx context.Context, cq ChargeQuery) (map[models.ChargeKind]decimal.Decimal, error) {
	var rows []struct {
		Kind  models.ChargeKind
		Total decimal.Decimal
	}
	q := r.conn(ctx).Model(&models.ChargeLine{}).
		Select("kind, COALESCE(SUM(amount), 0) AS total").
		Where("transaction_no = ? AND status >= ? AND status < ?",
			cq.TransactionNo, models.PostingStatusPosted, models.PostingStatusVoided)
	if cq.FolioNo != "" {
		q = q.Where("folio_no = ?", cq.FolioNo)
	}
	if err := q.Group("kind").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.ChargeKind]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.Kind] = row.Total
	}
	return out, nil
}

func (r *GormRepository) GetFolio(ctx context.Context, folioNo, transactionNo string) (*models.Folio, error) {
	var folio models.Folio
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&folio, "folio_no = ? AND transaction_no = ?", folioNo, transactionNo).Error
	if err != nil {
		return nil, translate(err)
	}
	return &folio, nil
}

func (r *GormRepository) CreateFolio(ctx context.Context, folio *models.Folio) (bool, error) {
	res := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(folio)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepository) UpdateFolio(ctx context.Context, folio *models.Folio) error {
	return translate(r.conn(ctx).Model(folio).Select("*").Omit("created_at").Updates(folio).Error)
}

func (r *GormRepository) NextSequence(ctx context.Context, key string) (int64, error) {
	var next int64
	err := r.conn(ctx).Raw(
		`INSERT INTO sequences ("key", value) VALUES (?, 1)
		 ON CONFLICT ("key") DO UPDATE SET value = sequences.value + 1
		 RETURNING value`, key).Scan(&next).Error
	return next, err
}

// ---- reference data

func (r *GormRepository) GetCurrency(ctx context.Context, id string) (*models.Currency, error) {
	var c models.Currency
	if err := r.conn(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormRepository) LatestExchangeRate(ctx context.Context, currencyID string, asOf time.Time) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.conn(ctx).
		Where("currency_id = ? AND effective_date <= ?", currencyID, asOf).
		Order("effective_date DESC").
		First(&rate).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rate, nil
}

func (r *GormRepository) GetSetting(ctx context.Context, name string) (*models.Setting, error) {
	var s models.Setting
	if err := r.conn(ctx).First(&s, "name = ? AND active = ?", name, true).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// ---- audit and outbound queue

func (r *GormRepository) CreateRoomStatusLog(ctx context.Context, log *models.RoomStatusLog) error {
	return r.conn(ctx).Create(log).Error
}

func (r *GormRepository) CreateOTAAvailability(ctx context.Context, row *models.OTAAvailability) error {
	return r.conn(ctx).Create(row).Error
}

func (r *GormRepository) PurgeOTAAvailability(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.conn(ctx).
		Where("processed = ? OR created_at < ?", true, olderThan).
		Delete(&models.OTAAvailability{})
	return res.RowsAffected, res.Error
}
