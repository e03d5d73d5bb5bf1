package controllers

import (
	"pms/dto"
	"pms/middleware"
	"pms/response"
	"pms/services"
	"pms/validator"

	"github.com/gin-gonic/gin"
)

type AvailabilityController struct {
	Availability *services.AvailabilityService
}

func NewAvailabilityController(availability *services.AvailabilityService) AvailabilityController {
	return AvailabilityController{Availability: availability}
}

// CheckStock answers whether a room type, or a single room, is free for every night of the stay.
func (a AvailabilityController) CheckStock(c *gin.Context) {
	var q dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	arrival, departure, err := validator.ParseDateRange(q.Arrival, q.Departure, false)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := a.Availability.CheckStock(c.Request.Context(), middleware.PropertyFrom(c), services.StockQuery{
		RoomTypeID:         q.RoomTypeID,
		RoomNo:             q.RoomNo,
		Arrival:            arrival,
		Departure:          departure,
		ExcludeTransaction: q.ExcludeTransaction,
		Hourly:             q.Hourly,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, result)
}

func (a AvailabilityController) Summary(c *gin.Context) {
	var q dto.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validator.BindingError(err))
		return
	}
	from, to, err := validator.ParseDateRange(q.From, q.To, true)
	if err != nil {
		_ = c.Error(err)
		return
	}

	summary, err := a.Availability.Summary(c.Request.Context(), middleware.PropertyFrom(c), q.RoomTypeID, from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, summary)
}
