package db

import (
	"context"
	"fmt"
)

// schema is applied in order; every statement is idempotent. The UNIQUE keys
// on payments.transaction_id and pricing_rules.active_category are what make
// webhook replays and concurrent rule activation safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	full_name VARCHAR(255) NULL,
	phone_number VARCHAR(15) NULL,
	role VARCHAR(20) NOT NULL DEFAULT 'passenger',
	password_hash VARCHAR(255) NOT NULL,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
	UNIQUE KEY uniq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS drivers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	license_number VARCHAR(50) NOT NULL,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	UNIQUE KEY uniq_drivers_user (user_id),
	CONSTRAINT fk_drivers_user FOREIGN KEY (user_id) REFERENCES users(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS vehicles (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	driver_id BIGINT NULL,
	model VARCHAR(100) NOT NULL,
	plate_number VARCHAR(20) NOT NULL,
	capacity INT NOT NULL DEFAULT 4,
	category VARCHAR(20) NOT NULL DEFAULT 'economy',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	is_company_owned TINYINT(1) NOT NULL DEFAULT 0,
	UNIQUE KEY uniq_vehicles_plate (plate_number),
	KEY idx_vehicles_driver (driver_id),
	CONSTRAINT fk_vehicles_driver FOREIGN KEY (driver_id) REFERENCES drivers(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS pricing_rules (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	category VARCHAR(20) NOT NULL,
	base_fare DECIMAL(10,2) NOT NULL,
	price_per_km_day DECIMAL(10,2) NOT NULL,
	price_per_km_night DECIMAL(10,2) NOT NULL,
	airport_surcharge DECIMAL(10,2) NOT NULL DEFAULT 0,
	holiday_surcharge DECIMAL(10,2) NOT NULL DEFAULT 0,
	passenger_surcharge DECIMAL(10,2) NOT NULL DEFAULT 0,
	min_fare DECIMAL(10,2) NOT NULL DEFAULT 0,
	min_fare_airport DECIMAL(10,2) NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	active_category VARCHAR(20) AS (IF(is_active = 1, category, NULL)) STORED,
	created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
	UNIQUE KEY uniq_pricing_active_category (active_category)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	driver_id BIGINT NULL,
	pickup_location VARCHAR(500) NOT NULL,
	dropoff_location VARCHAR(500) NOT NULL,
	scheduled_time DATETIME(6) NOT NULL,
	vehicle_category VARCHAR(20) NOT NULL,
	fare DECIMAL(10,2) NULL,
	passenger_count INT NOT NULL DEFAULT 1,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	distance_km DOUBLE NULL,
	duration_minutes INT NULL,
	cancellation_reason VARCHAR(500) NULL,
	rating INT NULL,
	created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
	KEY idx_bookings_user (user_id),
	KEY idx_bookings_driver (driver_id),
	CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users(id),
	CONSTRAINT fk_bookings_driver FOREIGN KEY (driver_id) REFERENCES drivers(id) ON DELETE SET NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	method VARCHAR(10) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	amount DECIMAL(10,2) NOT NULL,
	transaction_id VARCHAR(255) NULL,
	created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
	UNIQUE KEY uniq_payments_booking (booking_id),
	UNIQUE KEY uniq_payments_transaction (transaction_id),
	CONSTRAINT fk_payments_booking FOREIGN KEY (booking_id) REFERENCES bookings(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// EnsureSchema creates missing tables.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for i, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("schema step %d: %w", i+1, err)
		}
	}
	return nil
}
