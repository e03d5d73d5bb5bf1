package repositories

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	apperrors "pms/errors"
	"pms/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB connects to the disposable database named by PMS_TEST_DSN and recreates the schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("PMS_TEST_DSN")
	if dsn == "" {
		t.Skip("PMS_TEST_DSN not set; skipping postgres integration tests")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	all := models.AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		require.NoError(t, db.Migrator().DropTable(all[i]))
	}
	require.NoError(t, db.AutoMigrate(all...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedRooms(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.RoomType{ID: 1, Code: "DLX", Name: "Deluxe", Active: true}).Error)
	require.NoError(t, db.Create(&models.RoomType{ID: 2, Code: "OLD", Name: "Retired", Active: true}).Error)
	require.NoError(t, db.Model(&models.RoomType{}).Where("id = ?", 2).Update("active", false).Error)
	merged := 101
	for _, room := range []models.Room{
		{RoomNo: 101, RoomTypeID: 1, Status: models.RoomStatusVacantClean},
		{RoomNo: 102, RoomTypeID: 1, Status: models.RoomStatusOccupied},
		{RoomNo: 103, RoomTypeID: 1, Status: models.RoomStatusInactive},
		{RoomNo: 104, RoomTypeID: 1, Status: models.RoomStatusVacantClean, MergeTo: &merged},
		{RoomNo: 201, RoomTypeID: 2, Status: models.RoomStatusVacantClean},
	} {
		room := room
		require.NoError(t, db.Create(&room).Error)
	}
}

func TestGormCountSellableRooms(t *testing.T) {
	db := openTestDB(t)
	seedRooms(t, db)
	repo := NewGormRepository(db)
	ctx := context.Background()

	n, err := repo.CountSellableRooms(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "inactive and merged rooms carry no capacity")

	n, err = repo.CountSellableRooms(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "rooms of inactive types are excluded")

	_, err = repo.GetRoom(ctx, 999)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGormStockLedger(t *testing.T) {
	db := openTestDB(t)
	seedRooms(t, db)
	repo := NewGormRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.InsertStockRecords(ctx, []models.StockRecord{
		{TransactionNo: "T1", RoomNo: 101, RoomTypeID: 1, StayDate: utc(2024, 1, 10), IsStay: true},
		{TransactionNo: "T1", RoomNo: 101, RoomTypeID: 1, StayDate: utc(2024, 1, 11), IsStay: true},
		{TransactionNo: "OOO1", RoomNo: 102, RoomTypeID: 1, StayDate: utc(2024, 1, 11), IsStay: true, IsOutOfOrder: true},
	}))

	rows, err := repo.SumStayByDate(ctx, StockQuery{RoomTypeID: 1, From: utc(2024, 1, 10), To: utc(2024, 1, 12)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].StayDate.Equal(utc(2024, 1, 10)))
	assert.Equal(t, int64(1), rows[0].Stay)
	assert.Equal(t, int64(2), rows[1].Stay)
	assert.Equal(t, int64(1), rows[1].OutOfOrder)

	rows, err = repo.SumStayByDate(ctx, StockQuery{RoomTypeID: 1, From: utc(2024, 1, 10), To: utc(2024, 1, 12), ExcludeTransaction: "T1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	first, err := repo.FirstReservationNight(ctx, RoomNightQuery{RoomNo: 101, From: utc(2024, 1, 1), To: utc(2024, 2, 1)})
	require.NoError(t, err)
	assert.Nil(t, first, "stock without a reservation row is not a reservation night")

	n, err := repo.DeleteStockRecords(ctx, StockFilter{TransactionNo: "OOO1", RoomNo: 102, OutOfOrder: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := repo.ListRoomStock(ctx, 101, utc(2024, 1, 1), utc(2024, 2, 1))
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	err = repo.InsertStockRecords(ctx, []models.StockRecord{
		{TransactionNo: "T1", RoomNo: 101, RoomTypeID: 1, StayDate: utc(2024, 1, 10), IsStay: true},
	})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, apperrors.ErrConflict), "one row per transaction, room and night")
}

func TestGormTransactionRollsBack(t *testing.T) {
	db := openTestDB(t)
	seedRooms(t, db)
	repo := NewGormRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx Repository) error {
		room, err := tx.LockRoom(ctx, 101)
		if err != nil {
			return err
		}
		room.Status = models.RoomStatusOutOfOrder
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		if err := tx.InsertStockRecords(ctx, []models.StockRecord{
			{TransactionNo: "OOO2", RoomNo: 101, RoomTypeID: 1, StayDate: utc(2024, 1, 10), IsStay: true, IsOutOfOrder: true},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	room, err := repo.GetRoom(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusVacantClean, room.Status)
	recs, err := repo.ListRoomStock(ctx, 101, utc(2024, 1, 1), utc(2024, 2, 1))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGormFolioUpsertAndSequence(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextSequence(ctx, "folio:stay")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	folio := &models.Folio{FolioNo: "F000001", TransactionNo: "T1", Type: models.FolioTypeMaster, Balance: decimal.RequireFromString("10")}
	created, err := repo.CreateFolio(ctx, folio)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateFolio(ctx, &models.Folio{FolioNo: "F000001", TransactionNo: "T1"})
	require.NoError(t, err)
	assert.False(t, created, "an existing key is left untouched")

	folio.Balance = decimal.RequireFromString("25.5")
	require.NoError(t, repo.UpdateFolio(ctx, folio))
	stored, err := repo.GetFolio(ctx, "F000001", "T1")
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("25.5")))

	require.NoError(t, db.Create(&models.ChargeLine{TransactionNo: "T1", FolioNo: "F000001", Kind: models.ChargeKindExtra,
		Amount: decimal.RequireFromString("40"), Status: models.PostingStatusPosted}).Error)
	require.NoError(t, db.Create(&models.ChargeLine{TransactionNo: "T1", FolioNo: "F000001", Kind: models.ChargeKindExtra,
		Amount: decimal.RequireFromString("5"), Status: models.PostingStatusPending}).Error)
	sums, err := repo.SumCharges(ctx, ChargeQuery{TransactionNo: "T1"})
	require.NoError(t, err)
	assert.True(t, sums[models.ChargeKindExtra].Equal(decimal.RequireFromString("40")))
}

func TestGormPurgeOTAAvailability(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.CreateOTAAvailability(ctx, &models.OTAAvailability{RoomTypeID: 1, CreatedAt: now.AddDate(0, 0, -8)}))
	require.NoError(t, repo.CreateOTAAvailability(ctx, &models.OTAAvailability{RoomTypeID: 1, CreatedAt: now}))

	n, err := repo.PurgeOTAAvailability(ctx, now.AddDate(0, 0, -5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
