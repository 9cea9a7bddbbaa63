package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "taxibackend/internal/db"
	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
)

const pricingColumns = `id, category, base_fare, price_per_km_day, price_per_km_night,
	airport_surcharge, holiday_surcharge, passenger_surcharge, min_fare, min_fare_airport,
	is_active, created_at, updated_at`

type PricingRepository struct {
	DB intdb.DBTX
}

func scanPricingRule(row rowScanner) (models.PricingRule, error) {
	var (
		pr       models.PricingRule
		category string
	)
	err := row.Scan(
		&pr.ID, &category, &pr.BaseFare, &pr.PricePerKMDay, &pr.PricePerKMNight,
		&pr.AirportSurcharge, &pr.HolidaySurcharge, &pr.PassengerSurcharge, &pr.MinFare, &pr.MinFareAirport,
		&pr.IsActive, &pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return models.PricingRule{}, err
	}
	pr.Category = models.VehicleCategory(category)
	return pr, nil
}

func activeConflict(pr models.PricingRule, err error) error {
	return domain.ConflictError{
		Resource: "pricing rule",
		Msg:      fmt.Sprintf("an active rule for %s already exists", pr.Category),
		Err:      err,
	}
}

func (r PricingRepository) Create(ctx context.Context, pr *models.PricingRule) error {
	ts := now()
	pr.CreatedAt, pr.UpdatedAt = ts, ts
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO pricing_rules (category, base_fare, price_per_km_day, price_per_km_night,
			airport_surcharge, holiday_surcharge, passenger_surcharge, min_fare, min_fare_airport,
			is_active, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		string(pr.Category), pr.BaseFare, pr.PricePerKMDay, pr.PricePerKMNight,
		pr.AirportSurcharge, pr.HolidaySurcharge, pr.PassengerSurcharge, pr.MinFare, pr.MinFareAirport,
		pr.IsActive, pr.CreatedAt, pr.UpdatedAt,
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return activeConflict(*pr, err)
		}
		return fmt.Errorf("insert pricing rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert pricing rule id: %w", err)
	}
	pr.ID = id
	return nil
}

func (r PricingRepository) GetActiveByCategory(ctx context.Context, category models.VehicleCategory) (models.PricingRule, error) {
	pr, err := scanPricingRule(r.DB.QueryRowContext(ctx,
		`SELECT `+pricingColumns+` FROM pricing_rules WHERE category = ? AND is_active = 1 LIMIT 1`, string(category)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PricingRule{}, domain.NotFoundError{Resource: "pricing rule", Err: err}
		}
		return models.PricingRule{}, fmt.Errorf("select pricing rule: %w", err)
	}
	return pr, nil
}

func (r PricingRepository) list(ctx context.Context, query string) ([]models.PricingRule, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pricing rules: %w", err)
	}
	defer rows.Close()

	out := []models.PricingRule{}
	for rows.Next() {
		pr, err := scanPricingRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pricing rules: %w", err)
	}
	return out, nil
}

func (r PricingRepository) List(ctx context.Context) ([]models.PricingRule, error) {
	return r.list(ctx, `SELECT `+pricingColumns+` FROM pricing_rules ORDER BY category, id`)
}

func (r PricingRepository) ListActive(ctx context.Context) ([]models.PricingRule, error) {
	return r.list(ctx, `SELECT `+pricingColumns+` FROM pricing_rules WHERE is_active = 1 ORDER BY category`)
}

func (r PricingRepository) Update(ctx context.Context, pr models.PricingRule) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE pricing_rules
		SET base_fare = ?, price_per_km_day = ?, price_per_km_night = ?,
			airport_surcharge = ?, holiday_surcharge = ?, passenger_surcharge = ?,
			min_fare = ?, min_fare_airport = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		pr.BaseFare, pr.PricePerKMDay, pr.PricePerKMNight,
		pr.AirportSurcharge, pr.HolidaySurcharge, pr.PassengerSurcharge,
		pr.MinFare, pr.MinFareAirport, pr.IsActive, now(),
		pr.ID,
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return activeConflict(pr, err)
		}
		return fmt.Errorf("update pricing rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "pricing rule"}
	}
	return nil
}

func (r PricingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM pricing_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pricing rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "pricing rule"}
	}
	return nil
}
