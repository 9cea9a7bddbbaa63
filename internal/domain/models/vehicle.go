package models

type Vehicle struct {
	ID             int64           `json:"id"`
	DriverID       *int64          `json:"driver_id"`
	Model          string          `json:"model" binding:"required"`
	PlateNumber    string          `json:"plate_number" binding:"required,max=20"`
	Capacity       int             `json:"capacity"`
	Category       VehicleCategory `json:"category"`
	IsActive       bool            `json:"is_active"`
	IsCompanyOwned bool            `json:"is_company_owned"`
}

type VehicleUpdate struct {
	Model          *string          `json:"model"`
	PlateNumber    *string          `json:"plate_number" binding:"omitempty,max=20"`
	Capacity       *int             `json:"capacity"`
	Category       *VehicleCategory `json:"category"`
	IsActive       *bool            `json:"is_active"`
	DriverID       *int64           `json:"driver_id"`
	IsCompanyOwned *bool            `json:"is_company_owned"`
}
