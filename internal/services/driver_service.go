package services

import (
	"context"
	"fmt"
	"strings"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/repositories"
	"taxibackend/internal/utils"
)

// DriverService manages driver profiles together with their user accounts.
type DriverService struct {
	Store repositories.Store
}

func (s DriverService) ListFull(ctx context.Context, page domain.Page) ([]models.DriverFull, int, error) {
	page = page.Normalize()
	return s.Store.Repos().Drivers.ListFull(ctx, page.Skip, page.Limit)
}

func (s DriverService) GetFull(ctx context.Context, id int64) (models.DriverFull, error) {
	return s.Store.Repos().Drivers.GetFullByID(ctx, id)
}

// Create registers the user with the driver role and the driver profile in
// one transaction.
func (s DriverService) Create(ctx context.Context, in models.DriverCreate) (models.DriverFull, error) {
	license := strings.TrimSpace(in.LicenseNumber)
	if license == "" {
		return models.DriverFull{}, domain.ValidationError{Field: "license_number", Msg: "required"}
	}
	u, err := newUser(models.UserCreate{
		Email:       in.Email,
		Password:    in.Password,
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		Role:        domain.RoleDriver,
	})
	if err != nil {
		return models.DriverFull{}, err
	}

	var out models.DriverFull
	err = s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if err := ensureEmailFree(ctx, r, u.Email, 0); err != nil {
			return err
		}
		if err := r.Users.Create(ctx, &u); err != nil {
			return err
		}
		d := models.Driver{UserID: u.ID, LicenseNumber: license, IsActive: true}
		if err := r.Drivers.Create(ctx, &d); err != nil {
			return err
		}
		full, err := r.Drivers.GetFullByID(ctx, d.ID)
		out = full
		return err
	})
	if err != nil {
		return models.DriverFull{}, err
	}
	utils.LogEventCtx(ctx, "DRIVER", "create", fmt.Sprintf("driver_id=%d user_id=%d", out.ID, out.UserID))
	return out, nil
}

// Update changes driver fields and the linked user's contact fields.
func (s DriverService) Update(ctx context.Context, id int64, upd models.DriverUpdate) (models.DriverFull, error) {
	var out models.DriverFull
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		d, err := r.Drivers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if upd.Email != nil || upd.FullName != nil || upd.PhoneNumber != nil {
			u, err := r.Users.GetByID(ctx, d.UserID)
			if err != nil {
				return err
			}
			if err := applyUserUpdate(&u, models.UserUpdate{
				Email:       upd.Email,
				FullName:    upd.FullName,
				PhoneNumber: upd.PhoneNumber,
			}); err != nil {
				return err
			}
			if upd.Email != nil {
				if err := ensureEmailFree(ctx, r, u.Email, u.ID); err != nil {
					return err
				}
			}
			if err := r.Users.Update(ctx, u); err != nil {
				return err
			}
		}
		if upd.LicenseNumber != nil {
			license := strings.TrimSpace(*upd.LicenseNumber)
			if license == "" {
				return domain.ValidationError{Field: "license_number", Msg: "must not be empty"}
			}
			d.LicenseNumber = license
		}
		if upd.IsActive != nil {
			d.IsActive = *upd.IsActive
		}
		if err := r.Drivers.Update(ctx, d); err != nil {
			return err
		}
		full, err := r.Drivers.GetFullByID(ctx, id)
		out = full
		return err
	})
	if err != nil {
		return models.DriverFull{}, err
	}
	utils.LogEventCtx(ctx, "DRIVER", "update", fmt.Sprintf("driver_id=%d", id))
	return out, nil
}

// Delete removes the driver profile and, with userDelete, the user account
// behind it.
func (s DriverService) Delete(ctx context.Context, id int64, userDelete bool) error {
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		d, err := r.Drivers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Drivers.Delete(ctx, id); err != nil {
			return err
		}
		if userDelete {
			return r.Users.Delete(ctx, d.UserID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	utils.LogEventCtx(ctx, "DRIVER", "delete", fmt.Sprintf("driver_id=%d user_delete=%t", id, userDelete))
	return nil
}
