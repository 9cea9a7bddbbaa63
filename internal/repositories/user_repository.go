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

const userColumns = `id, email, full_name, phone_number, role, password_hash, is_active, created_at, updated_at`

type UserRepository struct {
	DB intdb.DBTX
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u        models.User
		fullName sql.NullString
		phone    sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &fullName, &phone, &u.Role, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return models.User{}, err
	}
	u.FullName = stringPtr(fullName)
	u.PhoneNumber = stringPtr(phone)
	return u, nil
}

func (r UserRepository) Create(ctx context.Context, u *models.User) error {
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (email, full_name, phone_number, role, password_hash, is_active, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		u.Email, nullable(u.FullName), nullable(u.PhoneNumber), u.Role, u.PasswordHash, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	u.ID = id
	return nil
}

func (r UserRepository) getOne(ctx context.Context, query string, arg any) (models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
}

func (r UserRepository) List(ctx context.Context, skip, limit int) ([]models.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return out, total, nil
}

func (r UserRepository) Update(ctx context.Context, u models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET email = ?, full_name = ?, phone_number = ?, role = ?, password_hash = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, nullable(u.FullName), nullable(u.PhoneNumber), u.Role, u.PasswordHash, u.IsActive, now(),
		u.ID,
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		if intdb.IsForeignKeyViolation(err) {
			return domain.ConflictError{Resource: "user", Msg: "user still has bookings or a driver profile", Err: err}
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}
