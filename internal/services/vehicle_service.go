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

const defaultCapacity = 4

type VehicleService struct {
	Store repositories.Store
}

func (s VehicleService) List(ctx context.Context, page domain.Page) ([]models.Vehicle, int, error) {
	page = page.Normalize()
	return s.Store.Repos().Vehicles.List(ctx, page.Skip, page.Limit)
}

func (s VehicleService) Get(ctx context.Context, id int64) (models.Vehicle, error) {
	return s.Store.Repos().Vehicles.GetByID(ctx, id)
}

// ListByDriver returns NotFound when the driver itself does not exist.
func (s VehicleService) ListByDriver(ctx context.Context, driverID int64) ([]models.Vehicle, error) {
	repos := s.Store.Repos()
	if _, err := repos.Drivers.GetByID(ctx, driverID); err != nil {
		return nil, err
	}
	return repos.Vehicles.ListByDriver(ctx, driverID)
}

func (s VehicleService) ListCompanyOwned(ctx context.Context) ([]models.Vehicle, error) {
	return s.Store.Repos().Vehicles.ListCompanyOwned(ctx)
}

func validateVehicle(v models.Vehicle) error {
	if strings.TrimSpace(v.Model) == "" {
		return domain.ValidationError{Field: "model", Msg: "required"}
	}
	if strings.TrimSpace(v.PlateNumber) == "" {
		return domain.ValidationError{Field: "plate_number", Msg: "required"}
	}
	if v.Capacity < 1 {
		return domain.ValidationError{Field: "capacity", Msg: "must be at least 1"}
	}
	if !v.Category.Valid() {
		return domain.ValidationError{Field: "category", Msg: "unknown vehicle category"}
	}
	if v.DriverID == nil && !v.IsCompanyOwned {
		return domain.ValidationError{Field: "driver_id", Msg: "required unless the vehicle is company owned"}
	}
	return nil
}

func checkDriver(ctx context.Context, r repositories.Repos, driverID *int64) error {
	if driverID == nil {
		return nil
	}
	_, err := r.Drivers.GetByID(ctx, *driverID)
	return err
}

func (s VehicleService) Create(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	v.PlateNumber = strings.ToUpper(strings.TrimSpace(v.PlateNumber))
	if v.Capacity == 0 {
		v.Capacity = defaultCapacity
	}
	if v.Category == "" {
		v.Category = models.CategoryEconomy
	}
	if err := validateVehicle(v); err != nil {
		return models.Vehicle{}, err
	}
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if err := checkDriver(ctx, r, v.DriverID); err != nil {
			return err
		}
		return r.Vehicles.Create(ctx, &v)
	})
	if err != nil {
		return models.Vehicle{}, err
	}
	utils.LogEventCtx(ctx, "VEHICLE", "create", fmt.Sprintf("vehicle_id=%d plate=%s", v.ID, v.PlateNumber))
	return v, nil
}

func (s VehicleService) Update(ctx context.Context, id int64, upd models.VehicleUpdate) (models.Vehicle, error) {
	var out models.Vehicle
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		v, err := r.Vehicles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if upd.Model != nil {
			v.Model = *upd.Model
		}
		if upd.PlateNumber != nil {
			v.PlateNumber = strings.ToUpper(strings.TrimSpace(*upd.PlateNumber))
		}
		if upd.Capacity != nil {
			v.Capacity = *upd.Capacity
		}
		if upd.Category != nil {
			v.Category = *upd.Category
		}
		if upd.IsActive != nil {
			v.IsActive = *upd.IsActive
		}
		if upd.IsCompanyOwned != nil {
			v.IsCompanyOwned = *upd.IsCompanyOwned
		}
		if upd.DriverID != nil {
			if err := checkDriver(ctx, r, upd.DriverID); err != nil {
				return err
			}
			v.DriverID = upd.DriverID
		}
		if err := validateVehicle(v); err != nil {
			return err
		}
		if err := r.Vehicles.Update(ctx, v); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return models.Vehicle{}, err
	}
	utils.LogEventCtx(ctx, "VEHICLE", "update", fmt.Sprintf("vehicle_id=%d", id))
	return out, nil
}

// Delete refuses company-owned vehicles.
func (s VehicleService) Delete(ctx context.Context, id int64) error {
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		v, err := r.Vehicles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if v.IsCompanyOwned {
			return domain.ForbiddenError{Msg: "company owned vehicles cannot be deleted"}
		}
		return r.Vehicles.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	utils.LogEventCtx(ctx, "VEHICLE", "delete", fmt.Sprintf("vehicle_id=%d", id))
	return nil
}
