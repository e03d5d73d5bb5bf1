package controllers

import (
	"net/http"

	"pms/dto"
	"pms/middleware"
	"pms/response"
	"pms/services"
	"pms/validator"

	"github.com/gin-gonic/gin"
)

type FolioController struct {
	Folios *services.FolioService
	Credit *services.CreditService
}

func NewFolioController(folios *services.FolioService, credit *services.CreditService) FolioController {
	return FolioController{Folios: folios, Credit: credit}
}

// PostTotals recomputes a folio from its charge lines and stores it; a new folio answers 201.
func (f FolioController) PostTotals(c *gin.Context) {
	var req dto.PostFolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	folioType, err := validator.ValidateFolioType(req.Type)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := f.Folios.PostTotals(c.Request.Context(), middleware.PropertyFrom(c), services.PostTotalsRequest{
		TransactionNo: req.TransactionNo,
		FolioNo:       req.FolioNo,
		Rate:          req.Rate,
		Charges:       req.Charges,
		Payment:       req.Payment,
		MasterFolioNo: req.MasterFolioNo,
		Remark:        req.Remark,
		Type:          folioType,
		CreditLimit:   req.CreditLimit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.Success(c, result)
}

// CreditCheck reports whether posting the amount would exceed the transaction's credit limit.
// A limited result is still a 200; callers branch on data.limited.
func (f FolioController) CreditCheck(c *gin.Context) {
	var req dto.CreditCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	prop := middleware.PropertyFrom(c)
	asOf, err := validator.ParseOptionalDate("date", req.Date)
	if err != nil {
		_ = c.Error(err)
		return
	}

	check := services.CreditCheck{
		TransactionNo: req.TransactionNo,
		FolioNo:       req.FolioNo,
		Currency:      req.Currency,
		AsOf:          prop.BusinessDate,
		Amount:        req.Amount,
		IsPayment:     req.IsPayment,
		Rate:          req.Rate,
	}
	if check.Currency == "" {
		check.Currency = prop.BaseCurrency
	}
	if asOf != nil {
		check.AsOf = *asOf
	}

	result, err := f.Credit.IsCreditLimited(c.Request.Context(), prop, check)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Code: 1, Mess: creditMessage(result), Data: result})
}

func creditMessage(r *services.CreditResult) string {
	if r.Limited {
		return r.Message
	}
	return "Success"
}
