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

const vehicleColumns = `id, driver_id, model, plate_number, capacity, category, is_active, is_company_owned`

type VehicleRepository struct {
	DB intdb.DBTX
}

func scanVehicle(row rowScanner) (models.Vehicle, error) {
	var (
		v        models.Vehicle
		driverID sql.NullInt64
		category string
	)
	if err := row.Scan(&v.ID, &driverID, &v.Model, &v.PlateNumber, &v.Capacity, &category, &v.IsActive, &v.IsCompanyOwned); err != nil {
		return models.Vehicle{}, err
	}
	v.DriverID = int64Ptr(driverID)
	v.Category = models.VehicleCategory(category)
	return v, nil
}

func vehicleWriteErr(op string, err error) error {
	switch {
	case intdb.IsDuplicateKey(err):
		return domain.ConflictError{Resource: "vehicle", Msg: "plate number already registered", Err: err}
	case intdb.IsForeignKeyViolation(err):
		return domain.NotFoundError{Resource: "driver", Err: err}
	}
	return fmt.Errorf("%s vehicle: %w", op, err)
}

func (r VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO vehicles (driver_id, model, plate_number, capacity, category, is_active, is_company_owned)
		VALUES (?,?,?,?,?,?,?)`,
		nullable(v.DriverID), v.Model, v.PlateNumber, v.Capacity, string(v.Category), v.IsActive, v.IsCompanyOwned,
	)
	if err != nil {
		return vehicleWriteErr("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert vehicle id: %w", err)
	}
	v.ID = id
	return nil
}

func (r VehicleRepository) GetByID(ctx context.Context, id int64) (models.Vehicle, error) {
	v, err := scanVehicle(r.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Vehicle{}, domain.NotFoundError{Resource: "vehicle", Err: err}
		}
		return models.Vehicle{}, fmt.Errorf("select vehicle: %w", err)
	}
	return v, nil
}

func (r VehicleRepository) list(ctx context.Context, query string, args ...any) ([]models.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	out := []models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return out, nil
}

func (r VehicleRepository) List(ctx context.Context, skip, limit int) ([]models.Vehicle, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}
	out, err := r.list(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r VehicleRepository) ListByDriver(ctx context.Context, driverID int64) ([]models.Vehicle, error) {
	return r.list(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE driver_id = ? ORDER BY id`, driverID)
}

func (r VehicleRepository) ListCompanyOwned(ctx context.Context) ([]models.Vehicle, error) {
	return r.list(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE is_company_owned = 1 ORDER BY id`)
}

func (r VehicleRepository) Update(ctx context.Context, v models.Vehicle) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE vehicles
		SET driver_id = ?, model = ?, plate_number = ?, capacity = ?, category = ?, is_active = ?, is_company_owned = ?
		WHERE id = ?`,
		nullable(v.DriverID), v.Model, v.PlateNumber, v.Capacity, string(v.Category), v.IsActive, v.IsCompanyOwned,
		v.ID,
	)
	if err != nil {
		return vehicleWriteErr("update", err)
	}
	return nil
}

func (r VehicleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "vehicle"}
	}
	return nil
}
