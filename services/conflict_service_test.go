package services

import (
	"context"
	"testing"

	apperrors "pms/errors"
	"pms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	in, out := day("2024-01-10"), day("2024-01-12")
	tests := []struct {
		name     string
		from, to string
		want     bool
	}{
		{"same start", "2024-01-10", "2024-01-11", true},
		{"covers start", "2024-01-09", "2024-01-11", true},
		{"inside", "2024-01-11", "2024-01-15", true},
		{"ends on arrival", "2024-01-08", "2024-01-10", false},
		{"starts on departure", "2024-01-12", "2024-01-14", false},
		{"entirely before", "2024-01-01", "2024-01-03", false},
		{"entirely after", "2024-01-20", "2024-01-21", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(day(tt.from), day(tt.to), in, out))
		})
	}
}

func TestCheckOverlapReservation(t *testing.T) {
	f := newFixture(t)
	f.repo.AddReservation(models.Reservation{ReservationNo: "R100", RoomNo: 101, RoomTypeID: 1, GuestName: "Ana",
		ArrivalDate: day("2024-01-10"), DepartureDate: day("2024-01-12"), Status: models.ReservationStatusConfirmed})
	f.stay("R100", 101, 1, "2024-01-10")
	f.stay("R100", 101, 1, "2024-01-11")

	res, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 101, From: day("2024-01-11"), To: day("2024-01-13"),
	})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ConflictOccupancy, res.Code)
	assert.Equal(t, "Ana", res.GuestName)
	assert.Equal(t, "Room 101 is used by Ana from 2024-01-10 to 2024-01-12.", res.Reason)
	assert.Equal(t, day("2024-01-10"), *res.ConflictStart)
	assert.Equal(t, day("2024-01-12"), *res.ConflictEnd)

	for _, window := range [][2]string{{"2024-01-12", "2024-01-14"}, {"2024-01-08", "2024-01-10"}} {
		res, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
			RoomNo: 101, From: day(window[0]), To: day(window[1]),
		})
		require.NoError(t, err)
		assert.True(t, res.Allowed, "touching window %v", window)
	}
}

func TestCheckOverlapIgnoresInactiveReservations(t *testing.T) {
	f := newFixture(t)
	f.repo.AddReservation(models.Reservation{ReservationNo: "R100", RoomNo: 101, RoomTypeID: 1, GuestName: "Ana",
		ArrivalDate: day("2024-01-10"), DepartureDate: day("2024-01-12"), Status: models.ReservationStatusNoShow})

	res, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 101, From: day("2024-01-10"), To: day("2024-01-11"),
	})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCheckOverlapDepartedAssignment(t *testing.T) {
	f := newFixture(t)
	f.repo.AddAssignment(models.MultiRoomAssignment{TransactionNo: "T5", RoomNo: 101, GuestName: "Citra",
		OriginalRoomTypeID: 1, RoomTypeID: 1, FromDate: day("2024-01-06"), ToDate: day("2024-01-12"),
		DepartDate: day("2024-01-08"), Active: true})

	res, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 101, From: day("2024-01-09"), To: day("2024-01-11"),
	})
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 101, From: day("2024-01-07"), To: day("2024-01-09"),
	})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ConflictOccupancy, res.Code)
}

func TestCheckOverlapRoomStatus(t *testing.T) {
	f := newFixture(t)
	occupied := f.room(t, 102)
	occupied.Status = models.RoomStatusOccupied
	f.repo.AddRoom(occupied)
	inactive := f.room(t, 103)
	inactive.Status = models.RoomStatusInactive
	f.repo.AddRoom(inactive)

	res, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 102, From: businessDate, To: businessDate.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ConflictRoomStatus, res.Code)

	res, err = f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 102, From: day("2024-01-06"), To: day("2024-01-07"),
	})
	require.NoError(t, err)
	assert.True(t, res.Allowed, "occupied only matters for a window starting today")

	res, err = f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 103, From: day("2024-01-06"), To: day("2024-01-07"),
	})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, "Invalid room status.", res.Reason)
}

func TestCheckOverlapHold(t *testing.T) {
	f := newFixture(t)
	held := f.room(t, 102)
	held.IsHold = true
	f.repo.AddRoom(held)

	res, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 102, From: day("2024-01-06"), To: day("2024-01-07"),
	})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ConflictHold, res.Code)
}

func TestCheckOverlapCapacity(t *testing.T) {
	f := newFixture(t)
	f.stay("T1", 102, 1, "2024-01-11")
	f.stay("T2", 103, 1, "2024-01-11")
	f.repo.AddBlock(models.Block{BlockNo: "B1", RoomTypeID: 1, State: models.BlockStateConfirmed,
		Nights: []models.BlockNight{{StayDate: day("2024-01-11"), Quantity: 1}}})

	res, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 101, From: day("2024-01-10"), To: day("2024-01-12"),
	})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ConflictCapacity, res.Code)
	require.NotNil(t, res.ConflictDate)
	assert.Equal(t, day("2024-01-11"), *res.ConflictDate)
}

func TestCheckOverlapOutOfOrderEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.lifecycle.SetOutOfOrder(context.Background(), f.prop, OOORequest{
		RoomNo: 101, Kind: models.OOOKindOutOfService, From: day("2024-01-10"), To: day("2024-01-12"), Remark: "AC broken",
	})
	require.NoError(t, err)

	res, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 101, From: day("2024-01-11"), To: day("2024-01-12"),
	})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ConflictOutOfOrder, res.Code)
	assert.Contains(t, res.Reason, "AC broken")

	res, err = f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 101, From: day("2024-01-12"), To: day("2024-01-13"),
	})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCheckOverlapErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 999, From: day("2024-01-10"), To: day("2024-01-11"),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	_, err = f.conflicts.CheckOverlap(context.Background(), f.prop, OverlapQuery{
		RoomNo: 101, From: day("2024-01-10"), To: day("2024-01-09"),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}
