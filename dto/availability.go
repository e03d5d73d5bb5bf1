package dto

type AvailabilityQuery struct {
	RoomTypeID         uint   `form:"roomTypeId"`
	RoomNo             int    `form:"roomNo"`
	Arrival            string `form:"arrival" binding:"required,datetime=2006-01-02"`
	Departure          string `form:"departure" binding:"required,datetime=2006-01-02"`
	ExcludeTransaction string `form:"excludeTransaction" binding:"max=32"`
	Hourly             bool   `form:"hourly"`
}

type SummaryQuery struct {
	RoomTypeID uint   `form:"roomTypeId"`
	From       string `form:"from" binding:"required,datetime=2006-01-02"`
	To         string `form:"to" binding:"required,datetime=2006-01-02"`
}
