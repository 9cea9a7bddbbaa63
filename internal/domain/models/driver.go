package models

type Driver struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	LicenseNumber string `json:"license_number"`
	IsActive      bool   `json:"is_active"`
}

// DriverFull joins the driver with its user account.
type DriverFull struct {
	Driver
	Email       string  `json:"email"`
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
}

// DriverCreate creates the user account and driver profile together.
type DriverCreate struct {
	Email         string  `json:"email" binding:"required,email,max=255"`
	Password      string  `json:"password" binding:"required,min=8,max=40"`
	FullName      *string `json:"full_name" binding:"omitempty,max=255"`
	PhoneNumber   *string `json:"phone_number" binding:"omitempty,max=15"`
	LicenseNumber string  `json:"license_number" binding:"required,max=50"`
}

type DriverUpdate struct {
	Email         *string `json:"email" binding:"omitempty,email,max=255"`
	FullName      *string `json:"full_name" binding:"omitempty,max=255"`
	PhoneNumber   *string `json:"phone_number" binding:"omitempty,max=15"`
	LicenseNumber *string `json:"license_number" binding:"omitempty,max=50"`
	IsActive      *bool   `json:"is_active"`
}
