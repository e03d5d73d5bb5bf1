package services

import (
	"context"
	"testing"

	apperrors "pms/errors"
	"pms/models"
	"pms/repositories/memory"
	"pms/services/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCreditService(repo *memory.Repository) *CreditService {
	currency := NewCurrencyService(CurrencyServiceOptions{Repo: repo, Logger: logger.Nop{}})
	return NewCreditService(CreditServiceOptions{Repo: repo, Currency: currency, Logger: logger.Nop{}})
}

func creditRepo() *memory.Repository {
	repo := newCurrencyRepo()
	repo.AddTransaction(models.Transaction{TransactionNo: "T001", RoomNo: 101, Status: models.TransactionStatusInHouse,
		CreditLimit: dec("1000")})
	repo.AddChargeLine(charge("T001", "F1", models.ChargeKindRoom, "900", models.PostingStatusPosted))
	repo.AddChargeLine(charge("T001", "F1", models.ChargeKindExtra, "80", models.PostingStatusPosted))
	repo.AddChargeLine(charge("T001", "F1", models.ChargeKindPayment, "30", models.PostingStatusPosted))
	repo.AddChargeLine(charge("T001", "F1", models.ChargeKindExtra, "400", models.PostingStatusPending))
	return repo
}

func TestIsCreditLimitedBoundary(t *testing.T) {
	svc := newCreditService(creditRepo())

	res, err := svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{
		TransactionNo: "T001", FolioNo: "F1", Amount: dec("50"),
	})
	require.NoError(t, err)
	assert.False(t, res.Limited, "reaching the limit exactly is allowed")
	assert.Equal(t, "950", res.Balance.String())
	assert.Empty(t, res.Message)

	res, err = svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{
		TransactionNo: "T001", FolioNo: "F1", Amount: dec("50.01"),
	})
	require.NoError(t, err)
	assert.True(t, res.Limited)
	assert.Equal(t,
		"Can not continue. Credit Limit is not enough.\nCredit limit is : 1,000.00. Current Balance is :950.00",
		res.Message)
}

func TestIsCreditLimitedForeignCurrency(t *testing.T) {
	repo := creditRepo()
	repo.AddCurrency(models.Currency{ID: "SGD", Direction: models.DirectionMultiply})
	repo.AddExchangeRate(models.ExchangeRate{CurrencyID: "SGD", EffectiveDate: day("2024-01-01"), MidRate: dec("9"), OfferRate: dec("10")})
	svc := newCreditService(repo)

	res, err := svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{
		TransactionNo: "T001", Currency: "SGD", Amount: dec("6"),
	})
	require.NoError(t, err)
	assert.Equal(t, "60", res.Converted.String(), "charges convert at the offer rate")
	assert.True(t, res.Limited)

	res, err = svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{
		TransactionNo: "T001", Currency: "SGD", Amount: dec("6"), IsPayment: true, Rate: dec("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "30", res.Converted.String(), "payments convert at the supplied rate")
	assert.False(t, res.Limited)
}

func TestIsCreditLimitedUnlimitedAndReservation(t *testing.T) {
	repo := creditRepo()
	repo.AddTransaction(models.Transaction{TransactionNo: "T002", Status: models.TransactionStatusInHouse})
	repo.AddReservation(models.Reservation{ReservationNo: "R001", Status: models.ReservationStatusConfirmed, CreditLimit: dec("100")})
	repo.AddChargeLine(charge("R001", "RF1", models.ChargeKindExtra, "90", models.PostingStatusPosted))
	svc := newCreditService(repo)

	res, err := svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{TransactionNo: "T002", Amount: dec("1000000")})
	require.NoError(t, err)
	assert.False(t, res.Limited)

	res, err = svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{TransactionNo: "R001", Amount: dec("11")})
	require.NoError(t, err)
	assert.True(t, res.Limited)
	assert.Equal(t, "100", res.Limit.String())
}

func TestIsCreditLimitedUnknownTransaction(t *testing.T) {
	svc := newCreditService(creditRepo())

	_, err := svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{TransactionNo: "T404", Amount: dec("1")})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	_, err = svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{Amount: dec("1")})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestIsCreditLimitedNegativeLimitRefuses(t *testing.T) {
	repo := creditRepo()
	repo.AddTransaction(models.Transaction{TransactionNo: "T003", Status: models.TransactionStatusInHouse, CreditLimit: dec("-1")})
	svc := newCreditService(repo)

	res, err := svc.IsCreditLimited(context.Background(), testProp(), CreditCheck{TransactionNo: "T003", Amount: dec("1")})
	require.NoError(t, err)
	assert.True(t, res.Limited)
	assert.Equal(t, "-1", res.Limit.String())
	assert.Contains(t, res.Message, "Credit limit is : -1.00")
}
