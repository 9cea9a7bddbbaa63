package services

import (
	"context"
	"sort"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/repositories"
	"taxibackend/internal/utils"
)

// PricingService owns the per-category rate rules and fare quotes.
type PricingService struct {
	Store repositories.Store
	Loc   *time.Location
}

func (s PricingService) List(ctx context.Context) ([]models.PricingRule, error) {
	return s.Store.Repos().Pricing.List(ctx)
}

func (s PricingService) GetActive(ctx context.Context, category models.VehicleCategory) (models.PricingRule, error) {
	if !category.Valid() {
		return models.PricingRule{}, domain.ValidationError{Field: "category", Msg: "unknown vehicle category"}
	}
	return s.Store.Repos().Pricing.GetActiveByCategory(ctx, category)
}

func (s PricingService) Create(ctx context.Context, rule models.PricingRule) (models.PricingRule, error) {
	if err := validateRule(rule); err != nil {
		return models.PricingRule{}, err
	}
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if rule.IsActive {
			if _, err := r.Pricing.GetActiveByCategory(ctx, rule.Category); err == nil {
				return domain.ConflictError{Resource: "pricing rule", Msg: "an active rule for " + string(rule.Category) + " already exists"}
			} else if !domain.IsNotFound(err) {
				return err
			}
		}
		return r.Pricing.Create(ctx, &rule)
	})
	if err != nil {
		return models.PricingRule{}, err
	}
	utils.LogEventCtx(ctx, "PRICING", "create", "category="+string(rule.Category))
	return rule, nil
}

// UpdateActive applies a partial update to the active rule of category.
func (s PricingService) UpdateActive(ctx context.Context, category models.VehicleCategory, upd models.PricingRuleUpdate) (models.PricingRule, error) {
	if !category.Valid() {
		return models.PricingRule{}, domain.ValidationError{Field: "category", Msg: "unknown vehicle category"}
	}
	var out models.PricingRule
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		rule, err := r.Pricing.GetActiveByCategory(ctx, category)
		if err != nil {
			return err
		}
		upd.Apply(&rule)
		if err := validateRule(rule); err != nil {
			return err
		}
		if err := r.Pricing.Update(ctx, rule); err != nil {
			return err
		}
		out = rule
		return nil
	})
	if err != nil {
		return models.PricingRule{}, err
	}
	utils.LogEventCtx(ctx, "PRICING", "update", "category="+string(category))
	return out, nil
}

func (s PricingService) DeleteActive(ctx context.Context, category models.VehicleCategory) error {
	if !category.Valid() {
		return domain.ValidationError{Field: "category", Msg: "unknown vehicle category"}
	}
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		rule, err := r.Pricing.GetActiveByCategory(ctx, category)
		if err != nil {
			return err
		}
		return r.Pricing.Delete(ctx, rule.ID)
	})
	if err != nil {
		return err
	}
	utils.LogEventCtx(ctx, "PRICING", "delete", "category="+string(category))
	return nil
}

// EstimateAll quotes every active category for the same ride, ordered by
// category.
func (s PricingService) EstimateAll(ctx context.Context, req models.EstimateRequest) ([]models.Estimate, error) {
	if req.DistanceKM < 0 {
		return nil, domain.ValidationError{Field: "distance_km", Msg: "must not be negative"}
	}
	if req.PassengerCount < 1 {
		req.PassengerCount = 1
	}
	rules, err := s.Store.Repos().Pricing.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	loc := s.Loc
	if loc == nil {
		loc = time.UTC
	}
	scheduled := req.ScheduledTime.In(loc)

	out := make([]models.Estimate, 0, len(rules))
	for _, rule := range rules {
		out = append(out, models.Estimate{
			Category:      rule.Category,
			EstimatedFare: utils.EstimateFare(rule, req.DistanceKM, req.DurationMinutes, scheduled, req.PassengerCount, req.IsAirport, req.IsHoliday),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func validateRule(rule models.PricingRule) error {
	if !rule.Category.Valid() {
		return domain.ValidationError{Field: "category", Msg: "unknown vehicle category"}
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"base_fare", rule.BaseFare},
		{"price_per_km_day", rule.PricePerKMDay},
		{"price_per_km_night", rule.PricePerKMNight},
		{"airport_surcharge", rule.AirportSurcharge},
		{"holiday_surcharge", rule.HolidaySurcharge},
		{"passenger_surcharge", rule.PassengerSurcharge},
		{"min_fare", rule.MinFare},
		{"min_fare_airport", rule.MinFareAirport},
	}
	for _, f := range fields {
		if f.value < 0 {
			return domain.ValidationError{Field: f.name, Msg: "must not be negative"}
		}
	}
	return nil
}
