package pricing

import "hotelstay/internal/domain"

type PeriodRequest struct {
	Name      string `json:"name" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

type PriceInput struct {
	RoomTypeID int64             `json:"room_type_id" binding:"required" validate:"required,gt=0"`
	RentalMode domain.RentalMode `json:"rental_mode" binding:"required" validate:"required,oneof=NIGHT HOUR"`
	UnitPrice  float64           `json:"unit_price" validate:"gte=0"`
}

type SetPricesRequest struct {
	Prices []PriceInput `json:"prices" binding:"required,min=1,dive"`
}

type PeriodDetails struct {
	domain.PricingPeriod
	Prices []domain.RoomTypePrice `json:"prices"`
}
