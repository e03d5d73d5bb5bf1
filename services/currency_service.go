package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pms/constants"
	apperrors "pms/errors"
	"pms/models"
	"pms/repositories"
	"pms/services/logger"
	"pms/types"

	"github.com/shopspring/decimal"
)

const defaultRateTTL = time.Hour

type RateKind int

const (
	RateMid RateKind = iota
	RateOffer
)

type Conversion struct {
	Currency        string
	Amount          decimal.Decimal
	AsOf            time.Time
	Reverse         bool
	UseSuppliedRate bool
	SuppliedRate    decimal.Decimal
	Kind            RateKind
}

type ConversionResult struct {
	Amount    decimal.Decimal            `json:"amount"`
	Rate      decimal.Decimal            `json:"rate"`
	Direction models.ConversionDirection `json:"direction"`
}

func identity(amount decimal.Decimal) *ConversionResult {
	return &ConversionResult{Amount: amount, Rate: decimal.NewFromInt(1), Direction: models.DirectionDivide}
}

type CurrencyService struct {
	repo   repositories.ReferenceRepository
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

type CurrencyServiceOptions struct {
	Repo   repositories.ReferenceRepository
	Cache  Cache
	TTL    time.Duration
	Logger logger.Logger
}

func NewCurrencyService(opts CurrencyServiceOptions) *CurrencyService {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = defaultRateTTL
	}
	return &CurrencyService{repo: opts.Repo, cache: opts.Cache, ttl: ttl, logger: opts.Logger}
}

// Convert moves an amount into the base currency (or out of it when Reverse is set).
// Base currency and missing rates convert 1:1.
func (s *CurrencyService) Convert(ctx context.Context, prop types.PropertyContext, c Conversion) (*ConversionResult, error) {
	if prop.IsBaseCurrency(c.Currency) {
		return identity(c.Amount), nil
	}
	currency, err := s.repo.GetCurrency(ctx, c.Currency)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown currency %s", c.Currency))
	}
	if err != nil {
		return nil, fmt.Errorf("load currency %s: %w", c.Currency, err)
	}

	var rate decimal.Decimal
	if c.UseSuppliedRate && c.SuppliedRate.IsPositive() {
		rate = c.SuppliedRate
	} else {
		asOf := c.AsOf
		if asOf.IsZero() {
			asOf = prop.Today()
		}
		found, err := s.latestRate(ctx, prop, currency.ID, types.DateOnly(asOf))
		if err != nil {
			return nil, err
		}
		if found == nil {
			return identity(c.Amount), nil
		}
		rate = found.MidRate
		if c.Kind == RateOffer {
			rate = found.OfferRate
		}
	}

	multiply := currency.Direction == models.DirectionMultiply
	if c.Reverse {
		multiply = !multiply
	}
	out := &ConversionResult{Rate: rate, Direction: currency.Direction}
	switch {
	case multiply:
		out.Amount = c.Amount.Mul(rate)
	case rate.IsZero():
		out.Amount = decimal.Zero
	default:
		out.Amount = c.Amount.Div(rate)
	}
	return out, nil
}

func (s *CurrencyService) latestRate(ctx context.Context, prop types.PropertyContext, currencyID string, asOf time.Time) (*models.ExchangeRate, error) {
	key := fmt.Sprintf(constants.CacheKeyExchangeRate, prop.PropertyID, currencyID, asOf.Format(constants.DateLayout))
	if s.cache != nil {
		var cached models.ExchangeRate
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			s.logger.Debug("rate cache read %s: %v", key, err)
		}
	}

	rate, err := s.repo.LatestExchangeRate(ctx, currencyID, asOf)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load exchange rate %s: %w", currencyID, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rate, s.ttl); err != nil {
			s.logger.Debug("rate cache write %s: %v", key, err)
		}
	}
	return rate, nil
}
