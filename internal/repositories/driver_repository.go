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

const driverFullSelect = `SELECT d.id, d.user_id, d.license_number, d.is_active,
	u.email, u.full_name, u.phone_number
	FROM drivers d JOIN users u ON u.id = d.user_id`

type DriverRepository struct {
	DB intdb.DBTX
}

func scanDriverFull(row rowScanner) (models.DriverFull, error) {
	var (
		d        models.DriverFull
		fullName sql.NullString
		phone    sql.NullString
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.LicenseNumber, &d.IsActive, &d.Email, &fullName, &phone); err != nil {
		return models.DriverFull{}, err
	}
	d.FullName = stringPtr(fullName)
	d.PhoneNumber = stringPtr(phone)
	return d, nil
}

func (r DriverRepository) Create(ctx context.Context, d *models.Driver) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO drivers (user_id, license_number, is_active) VALUES (?,?,?)`,
		d.UserID, d.LicenseNumber, d.IsActive)
	if err != nil {
		switch {
		case intdb.IsDuplicateKey(err):
			return domain.ConflictError{Resource: "driver", Msg: "user already has a driver profile", Err: err}
		case intdb.IsForeignKeyViolation(err):
			return domain.NotFoundError{Resource: "user", Err: err}
		}
		return fmt.Errorf("insert driver: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert driver id: %w", err)
	}
	d.ID = id
	return nil
}

func (r DriverRepository) GetByID(ctx context.Context, id int64) (models.Driver, error) {
	var d models.Driver
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, license_number, is_active FROM drivers WHERE id = ? LIMIT 1`, id).
		Scan(&d.ID, &d.UserID, &d.LicenseNumber, &d.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Driver{}, domain.NotFoundError{Resource: "driver", Err: err}
		}
		return models.Driver{}, fmt.Errorf("select driver: %w", err)
	}
	return d, nil
}

func (r DriverRepository) GetFullByID(ctx context.Context, id int64) (models.DriverFull, error) {
	d, err := scanDriverFull(r.DB.QueryRowContext(ctx, driverFullSelect+` WHERE d.id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DriverFull{}, domain.NotFoundError{Resource: "driver", Err: err}
		}
		return models.DriverFull{}, fmt.Errorf("select driver: %w", err)
	}
	return d, nil
}

func (r DriverRepository) ListFull(ctx context.Context, skip, limit int) ([]models.DriverFull, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM drivers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count drivers: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, driverFullSelect+` ORDER BY d.id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	out := []models.DriverFull{}
	for rows.Next() {
		d, err := scanDriverFull(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan driver: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list drivers: %w", err)
	}
	return out, total, nil
}

func (r DriverRepository) Update(ctx context.Context, d models.Driver) error {
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE drivers SET license_number = ?, is_active = ? WHERE id = ?`,
		d.LicenseNumber, d.IsActive, d.ID); err != nil {
		return fmt.Errorf("update driver: %w", err)
	}
	return nil
}

// Delete removes the driver profile. Bookings keep their history with a NULL
// driver; vehicles still pointing at the driver make this a conflict.
func (r DriverRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM drivers WHERE id = ?`, id)
	if err != nil {
		if intdb.IsForeignKeyViolation(err) {
			return domain.ConflictError{Resource: "driver", Msg: "driver still has vehicles", Err: err}
		}
		return fmt.Errorf("delete driver: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "driver"}
	}
	return nil
}
