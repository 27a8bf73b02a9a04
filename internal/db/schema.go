package db

import (
	"context"
	"fmt"
)

var schema = []struct {
	table string
	ddl   string
}{
	{"drivers", `
CREATE TABLE IF NOT EXISTS drivers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	vehicle_reg_number VARCHAR(50) NOT NULL,
	vehicle_type VARCHAR(100) NOT NULL DEFAULT '',
	vehicle_capacity INT NOT NULL DEFAULT 15,
	verified TINYINT(1) NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_driver_user (user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"route_templates", `
CREATE TABLE IF NOT EXISTS route_templates (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	from_name VARCHAR(255) NOT NULL,
	to_name VARCHAR(255) NOT NULL,
	base_fare BIGINT NOT NULL DEFAULT 0,
	price_per_km BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"route_stops", `
CREATE TABLE IF NOT EXISTS route_stops (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	route_template_id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL,
	lat DOUBLE NOT NULL,
	lng DOUBLE NOT NULL,
	seq INT NOT NULL DEFAULT 0,
	KEY idx_route (route_template_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"trips", `
CREATE TABLE IF NOT EXISTS trips (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	driver_id BIGINT NOT NULL,
	route_template_id BIGINT NOT NULL,
	departure_time DATETIME NOT NULL,
	vehicle_capacity INT NOT NULL,
	seats_booked INT NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_trip_key (driver_id, route_template_id, departure_time),
	KEY idx_driver (driver_id),
	CONSTRAINT chk_seats CHECK (seats_booked >= 0 AND seats_booked <= vehicle_capacity)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_code VARCHAR(40) NOT NULL,
	rider_id BIGINT NOT NULL,
	driver_id BIGINT NOT NULL,
	route_template_id BIGINT NOT NULL,
	trip_id BIGINT NOT NULL,
	origin_stop_id BIGINT NOT NULL,
	destination_stop_id BIGINT NOT NULL,
	fee BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	refund_owed TINYINT(1) NOT NULL DEFAULT 0,
	authorization_url VARCHAR(500) NOT NULL DEFAULT '',
	paid_at DATETIME NULL,
	cancelled_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_booking_code (booking_code),
	KEY idx_trip (trip_id),
	KEY idx_rider (rider_id),
	CONSTRAINT chk_booked_paid CHECK (status <> 'booked' OR payment_status = 'paid')
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
}

// EnsureSchema creates the core tables when they are missing.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, s := range schema {
		if HasTable(ctx, q, s.table) {
			continue
		}
		if _, err := q.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", s.table, err)
		}
	}
	return nil
}
