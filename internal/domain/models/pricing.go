package models

import "time"

// PricingRule is the rate configuration for one vehicle category.
type PricingRule struct {
	ID                 int64           `json:"id"`
	Category           VehicleCategory `json:"category" binding:"required"`
	BaseFare           float64         `json:"base_fare"`
	PricePerKMDay      float64         `json:"price_per_km_day"`
	PricePerKMNight    float64         `json:"price_per_km_night"`
	AirportSurcharge   float64         `json:"airport_surcharge"`
	HolidaySurcharge   float64         `json:"holiday_surcharge"`
	PassengerSurcharge float64         `json:"passenger_surcharge"`
	MinFare            float64         `json:"min_fare"`
	MinFareAirport     float64         `json:"min_fare_airport"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type PricingRuleUpdate struct {
	BaseFare           *float64 `json:"base_fare"`
	PricePerKMDay      *float64 `json:"price_per_km_day"`
	PricePerKMNight    *float64 `json:"price_per_km_night"`
	AirportSurcharge   *float64 `json:"airport_surcharge"`
	HolidaySurcharge   *float64 `json:"holiday_surcharge"`
	PassengerSurcharge *float64 `json:"passenger_surcharge"`
	MinFare            *float64 `json:"min_fare"`
	MinFareAirport     *float64 `json:"min_fare_airport"`
	IsActive           *bool    `json:"is_active"`
}

// Apply copies every present field onto r.
func (u PricingRuleUpdate) Apply(r *PricingRule) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&r.BaseFare, u.BaseFare)
	set(&r.PricePerKMDay, u.PricePerKMDay)
	set(&r.PricePerKMNight, u.PricePerKMNight)
	set(&r.AirportSurcharge, u.AirportSurcharge)
	set(&r.HolidaySurcharge, u.HolidaySurcharge)
	set(&r.PassengerSurcharge, u.PassengerSurcharge)
	set(&r.MinFare, u.MinFare)
	set(&r.MinFareAirport, u.MinFareAirport)
	if u.IsActive != nil {
		r.IsActive = *u.IsActive
	}
}
