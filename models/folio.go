package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type FolioType string

const (
	FolioTypeMaster     FolioType = "master"
	FolioTypeSharer     FolioType = "sharer"
	FolioTypeAdditional FolioType = "additional"
)

func (t FolioType) Valid() bool {
	switch t {
	case FolioTypeMaster, FolioTypeSharer, FolioTypeAdditional:
		return true
	}
	return false
}

type Folio struct {
	FolioNo         string           `json:"folioNo" gorm:"primaryKey;size:32"`
	TransactionNo   string           `json:"transactionNo" gorm:"primaryKey;size:32"`
	Type            FolioType        `json:"type" gorm:"size:16;default:master"`
	MasterFolioNo   string           `json:"masterFolioNo" gorm:"size:32"`
	Remark          string           `json:"remark"`
	TotalRate       decimal.Decimal  `json:"totalRate" gorm:"type:numeric(20,4);default:0"`
	TotalCharges    decimal.Decimal  `json:"totalCharges" gorm:"type:numeric(20,4);default:0"`
	TotalAdjustment decimal.Decimal  `json:"totalAdjustment" gorm:"type:numeric(20,4);default:0"`
	TotalPayment    decimal.Decimal  `json:"totalPayment" gorm:"type:numeric(20,4);default:0"`
	Balance         decimal.Decimal  `json:"balance" gorm:"type:numeric(20,4);default:0"`
	CreditLimit     *decimal.Decimal `json:"creditLimit" gorm:"type:numeric(20,4)"`
	CreatedAt       time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ChargeKind groups charge lines into the folio totals.
type ChargeKind string

const (
	ChargeKindRoom       ChargeKind = "room"
	ChargeKindExtra      ChargeKind = "extra"
	ChargeKindAdjustment ChargeKind = "adjustment"
	ChargeKindPayment    ChargeKind = "payment"
)

// PostingStatus is ordered by code: draft < pending < posted < settled < voided.
type PostingStatus int

const (
	PostingStatusDraft   PostingStatus = 1
	PostingStatusPending PostingStatus = 4
	PostingStatusPosted  PostingStatus = 5
	PostingStatusSettled PostingStatus = 6
	PostingStatusVoided  PostingStatus = 9
)

// CountsTowardBalance reports whether a line in this status affects folio totals.
func (s PostingStatus) CountsTowardBalance() bool {
	return s >= PostingStatusPosted && s < PostingStatusVoided
}

type ChargeLine struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	TransactionNo  string          `json:"transactionNo" gorm:"size:32;index:idx_charge_txn_folio"`
	FolioNo        string          `json:"folioNo" gorm:"size:32;index:idx_charge_txn_folio"`
	Kind           ChargeKind      `json:"kind" gorm:"size:16"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(20,4)"`
	OriginalAmount decimal.Decimal `json:"originalAmount" gorm:"type:numeric(20,4)"`
	CurrencyID     string          `json:"currencyId" gorm:"size:3"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate" gorm:"type:numeric(20,6)"`
	Status         PostingStatus   `json:"status"`
	PostingDate    time.Time       `json:"postingDate" gorm:"type:date"`
	CreatedAt      time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

// FolioTotals are the ledger sums for one (transaction, folio) pair.
type FolioTotals struct {
	Room       decimal.Decimal `json:"room"`
	Charges    decimal.Decimal `json:"charges"`
	Adjustment decimal.Decimal `json:"adjustment"`
	Payment    decimal.Decimal `json:"payment"`
}

// TotalsFromSums maps per-kind sums onto FolioTotals.
func TotalsFromSums(sums map[ChargeKind]decimal.Decimal) FolioTotals {
	return FolioTotals{
		Room:       sums[ChargeKindRoom],
		Charges:    sums[ChargeKindExtra],
		Adjustment: sums[ChargeKindAdjustment],
		Payment:    sums[ChargeKindPayment],
	}
}

// Outstanding is every posted debit minus payments.
func (t FolioTotals) Outstanding() decimal.Decimal {
	return t.Room.Add(t.Charges).Add(t.Adjustment).Sub(t.Payment)
}
