package services

import (
	"context"
	"testing"

	"pms/constants"
	apperrors "pms/errors"
	"pms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStockFreeCapacity(t *testing.T) {
	f := newFixture(t)
	f.stay("R1", 101, 1, "2024-01-10")

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-08"), Departure: day("2024-01-12"),
	})
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Nil(t, res.ConflictDate)
	assert.Equal(t, int64(3), res.Capacity)
}

func TestCheckStockReturnsEarliestFullNight(t *testing.T) {
	f := newFixture(t)
	for _, d := range []string{"2024-01-10", "2024-01-11"} {
		f.stay("R1", 101, 1, d)
		f.stay("R2", 102, 1, d)
		f.stay("R3", 103, 1, d)
	}

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-08"), Departure: day("2024-01-12"),
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
	require.NotNil(t, res.ConflictDate)
	assert.Equal(t, day("2024-01-10"), *res.ConflictDate)
	assert.Contains(t, res.Reason, "2024-01-10")
}

func TestCheckStockExcludesOwnTransaction(t *testing.T) {
	f := newFixture(t)
	f.stay("R1", 101, 1, "2024-01-10")
	f.stay("R2", 102, 1, "2024-01-10")
	f.stay("R3", 103, 1, "2024-01-10")

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-10"), Departure: day("2024-01-11"), ExcludeTransaction: "R3",
	})
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestCheckStockSameDayIsOneNight(t *testing.T) {
	f := newFixture(t)
	f.stay("R1", 101, 1, "2024-01-10")
	f.stay("R2", 102, 1, "2024-01-10")
	f.stay("R3", 103, 1, "2024-01-10")

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-10"), Departure: day("2024-01-10"),
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, day("2024-01-10"), *res.ConflictDate)
}

func TestCheckStockClampsToBusinessDate(t *testing.T) {
	f := newFixture(t)
	f.stay("R1", 101, 1, "2024-01-03")
	f.stay("R2", 102, 1, "2024-01-03")
	f.stay("R3", 103, 1, "2024-01-03")

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-01"), Departure: day("2024-01-07"),
	})
	require.NoError(t, err)
	assert.True(t, res.Available)

	res, err = f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-01"), Departure: day("2024-01-03"),
	})
	require.NoError(t, err)
	assert.True(t, res.Available, "window entirely before the business date")
}

func TestCheckStockCountsConfirmedBlocksOnly(t *testing.T) {
	f := newFixture(t)
	f.repo.AddBlock(models.Block{BlockNo: "B1", RoomTypeID: 1, State: models.BlockStatePending,
		Nights: []models.BlockNight{{StayDate: day("2024-01-10"), Quantity: 3}}})

	q := StockQuery{RoomTypeID: 1, Arrival: day("2024-01-10"), Departure: day("2024-01-11")}
	res, err := f.availability.CheckStock(context.Background(), f.prop, q)
	require.NoError(t, err)
	assert.True(t, res.Available)

	f.repo.AddBlock(models.Block{BlockNo: "B2", RoomTypeID: 1, State: models.BlockStateConfirmed,
		Nights: []models.BlockNight{{StayDate: day("2024-01-10"), Quantity: 2}}})
	f.stay("R1", 101, 1, "2024-01-10")

	res, err = f.availability.CheckStock(context.Background(), f.prop, q)
	require.NoError(t, err)
	assert.False(t, res.Available)
}

func TestCheckStockMultiRoomAssignmentShiftsCapacity(t *testing.T) {
	f := newFixture(t)
	// Booked in type 2, temporarily moved into type 1.
	f.stay("T9", 201, 2, "2024-01-10")
	f.repo.AddAssignment(models.MultiRoomAssignment{
		TransactionNo: "T9", RoomNo: 103, OriginalRoomTypeID: 2, RoomTypeID: 1,
		FromDate: day("2024-01-10"), ToDate: day("2024-01-11"), DepartDate: day("2024-01-11"), Active: true,
	})
	f.stay("R1", 101, 1, "2024-01-10")
	f.stay("R2", 102, 1, "2024-01-10")

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-10"), Departure: day("2024-01-11"),
	})
	require.NoError(t, err)
	assert.False(t, res.Available, "type 1 carries the reassigned stay")

	res, err = f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 2, Arrival: day("2024-01-10"), Departure: day("2024-01-11"),
	})
	require.NoError(t, err)
	assert.True(t, res.Available, "type 2 is freed by the reassignment")
}

func TestCheckStockRoomSpecificOccupancy(t *testing.T) {
	f := newFixture(t)
	f.repo.AddReservation(models.Reservation{ReservationNo: "R100", RoomNo: 101, RoomTypeID: 1, GuestName: "Ana",
		ArrivalDate: day("2024-01-11"), DepartureDate: day("2024-01-13"), Status: models.ReservationStatusConfirmed})
	f.stay("R100", 101, 1, "2024-01-11")
	f.stay("R100", 101, 1, "2024-01-12")
	f.repo.AddReservation(models.Reservation{ReservationNo: "R200", RoomNo: 102, RoomTypeID: 1,
		ArrivalDate: day("2024-01-11"), DepartureDate: day("2024-01-12"), Status: models.ReservationStatusCancelled})
	f.stay("R200", 102, 1, "2024-01-11")

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, RoomNo: 101, Arrival: day("2024-01-09"), Departure: day("2024-01-14"),
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, day("2024-01-11"), *res.ConflictDate)

	res, err = f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, RoomNo: 102, Arrival: day("2024-01-09"), Departure: day("2024-01-14"),
	})
	require.NoError(t, err)
	assert.True(t, res.Available, "cancelled reservation does not claim the room")
}

func TestCheckStockInHouseSkipsArrivalNight(t *testing.T) {
	f := newFixture(t)
	f.repo.AddTransaction(models.Transaction{TransactionNo: "T1", RoomNo: 101, RoomTypeID: 1, GuestName: "Budi",
		ArrivalDate: day("2024-01-06"), DepartureDate: day("2024-01-08"), Status: models.TransactionStatusInHouse})
	f.stay("T1", 101, 1, "2024-01-06")
	f.stay("T1", 101, 1, "2024-01-07")

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, RoomNo: 101, Arrival: day("2024-01-06"), Departure: day("2024-01-09"),
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, day("2024-01-07"), *res.ConflictDate)
}

func TestCheckStockHourlyIsUnavailable(t *testing.T) {
	f := newFixture(t)
	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-10"), Departure: day("2024-01-10"), Hourly: true,
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
}

func TestCheckStockValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-10"), Departure: day("2024-01-09"),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = f.availability.CheckStock(context.Background(), f.prop, StockQuery{RoomTypeID: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestCheckStockIgnoresInactiveAndMergedRooms(t *testing.T) {
	f := newFixture(t)
	inactive := f.room(t, 103)
	inactive.Status = models.RoomStatusInactive
	f.repo.AddRoom(inactive)
	merged := f.room(t, 102)
	target := 101
	merged.MergeTo = &target
	f.repo.AddRoom(merged)
	f.stay("R1", 101, 1, "2024-01-10")

	res, err := f.availability.CheckStock(context.Background(), f.prop, StockQuery{
		RoomTypeID: 1, Arrival: day("2024-01-10"), Departure: day("2024-01-11"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Capacity)
	assert.False(t, res.Available)
}

func TestCapacityRoomTypeSetting(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, uint(1), f.availability.CapacityRoomType(context.Background(), f.prop, 1))

	f.repo.SetSetting(constants.SettingIgnoreRoomTypeCapacity, "1")
	assert.Equal(t, uint(0), f.availability.CapacityRoomType(context.Background(), f.prop, 1))
}

func TestAvailabilitySummary(t *testing.T) {
	f := newFixture(t)
	f.repo.SetSetting(constants.SettingAvailabilityFormula, "([ONHAND] + [BLOCK]) / ([TOTALROOM] - [OOS] - [OOI]) * 100")
	f.stay("R1", 101, 1, "2024-01-10")
	f.repo.AddStock(models.StockRecord{TransactionNo: "OOO1", RoomNo: 103, RoomTypeID: 1,
		StayDate: day("2024-01-10"), IsStay: true, IsOutOfOrder: true})
	f.repo.AddBlock(models.Block{BlockNo: "B1", RoomTypeID: 1, State: models.BlockStateConfirmed,
		Nights: []models.BlockNight{{StayDate: day("2024-01-11"), Quantity: 1}}})

	sum, err := f.availability.Summary(context.Background(), f.prop, 1, day("2024-01-10"), day("2024-01-12"))
	require.NoError(t, err)
	require.Len(t, sum.Nights, 2)

	first := sum.Nights[0]
	assert.Equal(t, int64(3), first.Capacity)
	assert.Equal(t, int64(1), first.Sold)
	assert.Equal(t, int64(1), first.OutOfOrder)
	assert.Equal(t, int64(1), first.Available)
	require.NotNil(t, first.KPI)
	assert.InDelta(t, 50.0, *first.KPI, 1e-9)

	second := sum.Nights[1]
	assert.Equal(t, int64(1), second.Blocked)
	assert.Equal(t, int64(2), second.Available)
	require.NotNil(t, second.KPI)
	assert.InDelta(t, 100.0/3.0, *second.KPI, 1e-9)
}

func TestAvailabilitySummaryRejectsBadFormula(t *testing.T) {
	f := newFixture(t)
	f.repo.SetSetting(constants.SettingAvailabilityFormula, "[ONHAND] +")

	_, err := f.availability.Summary(context.Background(), f.prop, 1, day("2024-01-10"), day("2024-01-12"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestAvailabilitySummaryRejectsUnknownToken(t *testing.T) {
	f := newFixture(t)
	f.repo.SetSetting(constants.SettingAvailabilityFormula, "[HOUSEUSE] + [ONHAND]")

	sum, err := f.availability.Summary(context.Background(), f.prop, 1, day("2024-01-10"), day("2024-01-12"))
	require.Error(t, err)
	assert.Nil(t, sum)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestAvailabilitySummaryDivisionByZeroLeavesKPIEmpty(t *testing.T) {
	f := newFixture(t)
	f.repo.SetSetting(constants.SettingAvailabilityFormula, "[ONHAND] / [OOS]")

	sum, err := f.availability.Summary(context.Background(), f.prop, 1, day("2024-01-10"), day("2024-01-11"))
	require.NoError(t, err)
	require.Len(t, sum.Nights, 1)
	assert.Nil(t, sum.Nights[0].KPI)
}

func TestAvailabilitySummaryRejectsLongRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.availability.Summary(context.Background(), f.prop, 1, day("2024-01-10"), day("2099-01-10"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}
