package dto

type ExchangeQuery struct {
	Currency string `form:"currency" binding:"required,currency"`
	Amount   string `form:"amount" binding:"required"`
	Date     string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Reverse  bool   `form:"reverse"`
	Kind     string `form:"kind" binding:"omitempty,oneof=mid offer"`
	// Rate, when positive, replaces the stored rate.
	Rate string `form:"rate"`
}
