package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     *string   `json:"full_name"`
	PhoneNumber  *string   `json:"phone_number"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserCreate struct {
	Email       string  `json:"email" binding:"required,email,max=255"`
	Password    string  `json:"password" binding:"required,min=8,max=40"`
	FullName    *string `json:"full_name" binding:"omitempty,max=255"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=15"`
	Role        string  `json:"role"`
}

type UserUpdate struct {
	Email       *string `json:"email" binding:"omitempty,email,max=255"`
	FullName    *string `json:"full_name" binding:"omitempty,max=255"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=15"`
	Password    *string `json:"password" binding:"omitempty,min=8,max=40"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"is_active"`
}
