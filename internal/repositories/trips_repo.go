package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intdb "skitro/internal/db"
	"skitro/internal/domain"
	"skitro/internal/domain/models"
)

const tripColumns = `id, driver_id, route_template_id, departure_time, vehicle_capacity, seats_booked, status, created_at, updated_at`

type TripRepository struct {
	DB intdb.Querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (models.Trip, error) {
	var t models.Trip
	var status string
	err := row.Scan(
		&t.ID,
		&t.DriverID,
		&t.RouteTemplateID,
		&t.DepartureTime,
		&t.VehicleCapacity,
		&t.SeatsBooked,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	t.Status = models.TripStatus(status)
	return t, err
}

func (r TripRepository) getOne(ctx context.Context, query string, args ...any) (models.Trip, error) {
	t, err := scanTrip(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
		}
		return models.Trip{}, fmt.Errorf("get trip: %w", err)
	}
	return t, nil
}

func (r TripRepository) GetByID(ctx context.Context, id int64) (models.Trip, error) {
	return r.getOne(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ? LIMIT 1`, id)
}

// GetByIDForUpdate locks the trip row until the surrounding transaction ends.
func (r TripRepository) GetByIDForUpdate(ctx context.Context, id int64) (models.Trip, error) {
	return r.getOne(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ? FOR UPDATE`, id)
}

func (r TripRepository) FindByKey(ctx context.Context, key models.TripKey) (models.Trip, error) {
	return r.getOne(ctx, `SELECT `+tripColumns+` FROM trips
		WHERE driver_id = ? AND route_template_id = ? AND departure_time = ?
		LIMIT 1`,
		key.DriverID, key.RouteTemplateID, key.DepartureTime)
}

// FindByKeyLocked reads the latest committed trip with a shared lock, so a
// lookup after a lost insert race sees the winner's row even inside an
// older read snapshot.
func (r TripRepository) FindByKeyLocked(ctx context.Context, key models.TripKey) (models.Trip, error) {
	return r.getOne(ctx, `SELECT `+tripColumns+` FROM trips
		WHERE driver_id = ? AND route_template_id = ? AND departure_time = ?
		LIMIT 1 LOCK IN SHARE MODE`,
		key.DriverID, key.RouteTemplateID, key.DepartureTime)
}

// Insert creates a scheduled trip with no seats booked. A duplicate key is
// returned as-is so callers can detect it with intdb.IsDuplicateKey.
func (r TripRepository) Insert(ctx context.Context, key models.TripKey, capacity int) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO trips (driver_id, route_template_id, departure_time, vehicle_capacity, seats_booked, status)
		VALUES (?, ?, ?, ?, 0, ?)`,
		key.DriverID, key.RouteTemplateID, key.DepartureTime, capacity, string(models.TripScheduled))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// IncrementSeatsBooked consumes one seat. The capacity guard lives in the
// predicate; false means the trip had no seat left.
func (r TripRepository) IncrementSeatsBooked(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE trips SET seats_booked = seats_booked + 1
		WHERE id = ? AND seats_booked < vehicle_capacity`, id)
	if err != nil {
		return false, fmt.Errorf("increment seats booked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateStatus moves the trip to `to` only if its current status is one of from.
func (r TripRepository) UpdateStatus(ctx context.Context, id int64, to models.TripStatus, from []models.TripStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	ph := make([]string, 0, len(from))
	args := []any{string(to), id}
	for _, s := range from {
		ph = append(ph, "?")
		args = append(args, string(s))
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE trips SET status = ? WHERE id = ? AND status IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return false, fmt.Errorf("update trip status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r TripRepository) ListByDriver(ctx context.Context, driverID int64) ([]models.Trip, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE driver_id = ? ORDER BY departure_time DESC, id DESC`, driverID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
