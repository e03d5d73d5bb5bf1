package dto

import "github.com/shopspring/decimal"

type PostFolioRequest struct {
	TransactionNo string           `json:"transactionNo" binding:"required,max=32"`
	FolioNo       string           `json:"folioNo" binding:"max=32"`
	Rate          decimal.Decimal  `json:"rate"`
	Charges       decimal.Decimal  `json:"charges"`
	Payment       decimal.Decimal  `json:"payment"`
	MasterFolioNo string           `json:"masterFolioNo" binding:"max=32"`
	Remark        *string          `json:"remark"`
	Type          string           `json:"type" binding:"omitempty,oneof=master sharer additional"`
	CreditLimit   *decimal.Decimal `json:"creditLimit"`
}

type CreditCheckRequest struct {
	TransactionNo string          `json:"transactionNo" binding:"required,max=32"`
	FolioNo       string          `json:"folioNo" binding:"max=32"`
	Currency      string          `json:"currency" binding:"omitempty,currency"`
	Date          string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Amount        decimal.Decimal `json:"amount"`
	IsPayment     bool            `json:"isPayment"`
	Rate          decimal.Decimal `json:"rate"`
}
