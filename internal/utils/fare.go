package utils

import (
	"time"

	"taxibackend/internal/domain/models"
)

const (
	dayStartHour       = 8
	nightStartHour     = 20
	includedPassengers = 4
)

// IsNightTime reports whether hour falls in the night tariff (before 08:00 or
// from 20:00).
func IsNightTime(hour int) bool {
	return hour < dayStartHour || hour >= nightStartHour
}

// EstimateFare prices one ride against rule. The hour is read from
// scheduledTime as given, so callers convert it to the service time zone
// first. durationMinutes does not affect the fare today.
func EstimateFare(
	rule models.PricingRule,
	distanceKM float64,
	durationMinutes int,
	scheduledTime time.Time,
	passengerCount int,
	isAirport, isHoliday bool,
) float64 {
	_ = durationMinutes

	perKM := rule.PricePerKMDay
	if IsNightTime(scheduledTime.Hour()) {
		perKM = rule.PricePerKMNight
	}
	fare := rule.BaseFare + perKM*distanceKM

	if isAirport {
		fare += rule.AirportSurcharge
	}
	if isHoliday {
		fare += rule.HolidaySurcharge
	}
	if passengerCount > includedPassengers {
		fare += float64(passengerCount-includedPassengers) * rule.PassengerSurcharge
	}

	floor := rule.MinFare
	if isAirport {
		floor = rule.MinFareAirport
	}
	if fare < floor {
		fare = floor
	}

	return RoundMoney(fare)
}
