package controllers

import (
	"pms/dto"
	"pms/middleware"
	"pms/response"
	"pms/services"
	"pms/validator"

	"github.com/gin-gonic/gin"
)

type ExchangeController struct {
	Currency *services.CurrencyService
}

func NewExchangeController(currency *services.CurrencyService) ExchangeController {
	return ExchangeController{Currency: currency}
}

func (e ExchangeController) Convert(c *gin.Context) {
	var q dto.ExchangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	amount, err := validator.ParseAmount("amount", q.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}
	rate, err := validator.ParseAmount("rate", q.Rate)
	if err != nil {
		_ = c.Error(err)
		return
	}
	asOf, err := validator.ParseOptionalDate("date", q.Date)
	if err != nil {
		_ = c.Error(err)
		return
	}

	prop := middleware.PropertyFrom(c)
	conv := services.Conversion{
		Currency:        q.Currency,
		Amount:          amount,
		AsOf:            prop.BusinessDate,
		Reverse:         q.Reverse,
		UseSuppliedRate: rate.IsPositive(),
		SuppliedRate:    rate,
	}
	if asOf != nil {
		conv.AsOf = *asOf
	}
	if q.Kind == "offer" {
		conv.Kind = services.RateOffer
	}

	result, err := e.Currency.Convert(c.Request.Context(), prop, conv)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, result)
}
