package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "pms/errors"
	"pms/models"
	"pms/repositories"
	"pms/services/logger"
	"pms/types"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type CreditCheck struct {
	TransactionNo string
	FolioNo       string
	Currency      string
	AsOf          time.Time
	Amount        decimal.Decimal
	// IsPayment selects the caller's Rate instead of the day's offer rate.
	IsPayment bool
	Rate      decimal.Decimal
}

type CreditResult struct {
	Limited   bool            `json:"limited"`
	Message   string          `json:"message,omitempty"`
	Limit     decimal.Decimal `json:"limit"`
	Balance   decimal.Decimal `json:"balance"`
	Converted decimal.Decimal `json:"converted"`
}

type CreditService struct {
	repo     repositories.Repository
	currency *CurrencyService
	printer  *message.Printer
	logger   logger.Logger
}

type CreditServiceOptions struct {
	Repo     repositories.Repository
	Currency *CurrencyService
	Logger   logger.Logger
}

func NewCreditService(opts CreditServiceOptions) *CreditService {
	return &CreditService{
		repo:     opts.Repo,
		currency: opts.Currency,
		printer:  message.NewPrinter(language.English),
		logger:   opts.Logger,
	}
}

// IsCreditLimited reports whether posting Amount would push the balance above the limit.
// A limit of zero means unlimited; a negative limit refuses any posting.
func (s *CreditService) IsCreditLimited(ctx context.Context, prop types.PropertyContext, c CreditCheck) (*CreditResult, error) {
	if c.TransactionNo == "" {
		return nil, apperrors.Validation("transaction number is required")
	}

	limit, err := s.creditLimit(ctx, c.TransactionNo)
	if err != nil {
		return nil, err
	}
	if limit.IsZero() {
		return &CreditResult{Limited: false, Limit: decimal.Zero}, nil
	}

	conv := Conversion{Currency: c.Currency, Amount: c.Amount, AsOf: c.AsOf, Kind: RateOffer}
	if c.IsPayment {
		conv.UseSuppliedRate = true
		conv.SuppliedRate = c.Rate
	}
	converted, err := s.currency.Convert(ctx, prop, conv)
	if err != nil {
		return nil, err
	}

	sums, err := s.repo.SumCharges(ctx, repositories.ChargeQuery{TransactionNo: c.TransactionNo, FolioNo: c.FolioNo})
	if err != nil {
		return nil, apperrors.Persistence("load folio balance", err)
	}
	balance := models.TotalsFromSums(sums).Outstanding()

	res := &CreditResult{Limit: limit, Balance: balance, Converted: converted.Amount}
	if balance.Add(converted.Amount).GreaterThan(limit) {
		res.Limited = true
		res.Message = s.printer.Sprintf("Can not continue. Credit Limit is not enough.\nCredit limit is : %.2f. Current Balance is :%.2f",
			limit.InexactFloat64(), balance.InexactFloat64())
	}
	return res, nil
}

func (s *CreditService) creditLimit(ctx context.Context, transactionNo string) (decimal.Decimal, error) {
	var (
		limit decimal.Decimal
		err   error
	)
	if models.IsReservationNo(transactionNo) {
		var res *models.Reservation
		if res, err = s.repo.GetReservation(ctx, transactionNo); err == nil {
			limit = res.CreditLimit
		}
	} else {
		var t *models.Transaction
		if t, err = s.repo.GetTransaction(ctx, transactionNo); err == nil {
			limit = t.CreditLimit
		}
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, apperrors.NewAppError(apperrors.ErrCodeNotFound,
			fmt.Sprintf("Transaction %s not found.", transactionNo), apperrors.ErrTransactionNotFound)
	}
	if err != nil {
		return decimal.Zero, apperrors.Persistence("load credit limit", err)
	}
	return limit, nil
}
