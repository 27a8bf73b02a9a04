package services

import (
	"context"
	"database/sql"
	"fmt"

	intdb "skitro/internal/db"
	"skitro/internal/domain"
	"skitro/internal/domain/models"
	"skitro/internal/repositories"
	"skitro/internal/utils"
)

// DefaultVehicleCapacity applies when a driver record carries no capacity.
const DefaultVehicleCapacity = 15

// TripService is the trip registry: one row per (driver, route template,
// departure time), created on first booking intent.
type TripService struct {
	DB        *sql.DB
	RequestID string
}

func (s TripService) GetOrCreateTrip(ctx context.Context, driverID, routeTemplateID int64, departureTime string) (models.Trip, error) {
	key, err := ParseTripKey(driverID, routeTemplateID, departureTime)
	if err != nil {
		return models.Trip{}, err
	}
	var trip models.Trip
	err = intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		trip, err = s.getOrCreate(ctx, tx, key)
		return err
	})
	if err != nil {
		return models.Trip{}, asConflict("trip", err)
	}
	return trip, nil
}

// ParseTripKey validates the identifying fields of a trip.
func ParseTripKey(driverID, routeTemplateID int64, departureTime string) (models.TripKey, error) {
	if driverID <= 0 {
		return models.TripKey{}, domain.ValidationError{Field: "driverId", Msg: "required"}
	}
	if routeTemplateID <= 0 {
		return models.TripKey{}, domain.ValidationError{Field: "routeTemplateId", Msg: "required"}
	}
	at, err := utils.ParseDepartureTime(departureTime)
	if err != nil {
		return models.TripKey{}, domain.ValidationError{Field: "departureTime", Msg: "must be RFC 3339 or YYYY-MM-DD HH:MM", Err: err}
	}
	return models.TripKey{DriverID: driverID, RouteTemplateID: routeTemplateID, DepartureTime: at}, nil
}

// getOrCreate resolves the trip for key inside q. An existing trip is
// returned untouched. Losing an insert race is resolved by one locking
// re-read of the winner's row.
func (s TripService) getOrCreate(ctx context.Context, q intdb.Querier, key models.TripKey) (models.Trip, error) {
	trips := repositories.TripRepository{DB: q}

	trip, err := trips.FindByKey(ctx, key)
	if err == nil {
		return trip, nil
	}
	if !domain.IsNotFound(err) {
		return models.Trip{}, err
	}

	driver, err := repositories.DriverRepository{DB: q}.GetByID(ctx, key.DriverID)
	if err != nil {
		return models.Trip{}, err
	}
	capacity := driver.VehicleCapacity
	if capacity <= 0 {
		capacity = DefaultVehicleCapacity
	}

	id, err := trips.Insert(ctx, key, capacity)
	if err != nil {
		if !intdb.IsDuplicateKey(err) {
			return models.Trip{}, fmt.Errorf("insert trip: %w", err)
		}
		utils.LogEvent(s.RequestID, "trips", "create_race", fmt.Sprintf("driver_id=%d route_template_id=%d", key.DriverID, key.RouteTemplateID))
		trip, err = trips.FindByKeyLocked(ctx, key)
		if err != nil {
			return models.Trip{}, domain.ConflictError{Resource: "trip", Msg: "concurrent trip creation", Err: err}
		}
		return trip, nil
	}

	utils.LogEvent(s.RequestID, "trips", "create", fmt.Sprintf("trip_id=%d capacity=%d", id, capacity))
	return trips.GetByID(ctx, id)
}

func (s TripService) Get(ctx context.Context, id int64) (models.Trip, error) {
	if id <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "id", Msg: "invalid id"}
	}
	return repositories.TripRepository{DB: s.DB}.GetByID(ctx, id)
}

func (s TripService) ListByDriver(ctx context.Context, driverID int64) ([]models.Trip, error) {
	if driverID <= 0 {
		return nil, domain.ValidationError{Field: "driverId", Msg: "invalid id"}
	}
	return repositories.TripRepository{DB: s.DB}.ListByDriver(ctx, driverID)
}

// Bookings lists every booking on the trip, any status.
func (s TripService) Bookings(ctx context.Context, tripID int64) ([]models.Booking, error) {
	if _, err := s.Get(ctx, tripID); err != nil {
		return nil, err
	}
	return repositories.BookingRepository{DB: s.DB}.ListByTrip(ctx, tripID)
}

func (s TripService) Depart(ctx context.Context, id int64) (models.Trip, error) {
	return s.transition(ctx, id, models.TripDeparted)
}

func (s TripService) Complete(ctx context.Context, id int64) (models.Trip, error) {
	return s.transition(ctx, id, models.TripCompleted)
}

func (s TripService) Cancel(ctx context.Context, id int64) (models.Trip, error) {
	return s.transition(ctx, id, models.TripCancelled)
}

// transition moves the trip forward. The allowed source statuses sit in the
// UPDATE predicate so concurrent transitions cannot skip or reverse a step.
func (s TripService) transition(ctx context.Context, id int64, to models.TripStatus) (models.Trip, error) {
	if id <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "id", Msg: "invalid id"}
	}
	trips := repositories.TripRepository{DB: s.DB}
	ok, err := trips.UpdateStatus(ctx, id, to, to.PreviousStatuses())
	if err != nil {
		return models.Trip{}, domain.InternalError{Msg: "update trip status", Err: err}
	}
	trip, err := trips.GetByID(ctx, id)
	if err != nil {
		return models.Trip{}, err
	}
	if !ok {
		return trip, domain.ValidationError{
			Field: "status",
			Msg:   fmt.Sprintf("cannot move trip from %s to %s", trip.Status, to),
		}
	}
	utils.LogEvent(s.RequestID, "trips", "transition", fmt.Sprintf("trip_id=%d status=%s", id, to))
	return trip, nil
}

// asConflict turns server-side lock failures into a retryable conflict.
func asConflict(resource string, err error) error {
	if intdb.IsLockConflict(err) {
		return domain.ConflictError{Resource: resource, Msg: "lock conflict, retry", Err: err}
	}
	return err
}
