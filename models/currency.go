package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConversionDirection is the per-currency convention for reaching the base currency.
type ConversionDirection int

const (
	DirectionDivide   ConversionDirection = 0
	DirectionMultiply ConversionDirection = 1
)

type Currency struct {
	ID        string              `json:"id" gorm:"primaryKey;size:3"`
	Name      string              `json:"name"`
	Direction ConversionDirection `json:"direction" gorm:"default:0"`
}

type ExchangeRate struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	CurrencyID    string          `json:"currencyId" gorm:"size:3;index:idx_rate_currency_date,priority:1"`
	EffectiveDate time.Time       `json:"effectiveDate" gorm:"type:date;index:idx_rate_currency_date,priority:2"`
	MidRate       decimal.Decimal `json:"midRate" gorm:"type:numeric(20,6)"`
	OfferRate     decimal.Decimal `json:"offerRate" gorm:"type:numeric(20,6)"`
}
