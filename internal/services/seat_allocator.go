package services

import (
	"context"
	"fmt"

	intdb "skitro/internal/db"
	"skitro/internal/domain"
	"skitro/internal/domain/models"
	"skitro/internal/repositories"
)

// SeatAllocator decides whether a booking may hold a seat. Both checks run
// on the caller's transaction.
type SeatAllocator struct{}

// CheckAvailability is the advisory check at booking intent. It reserves
// nothing; ConfirmSeat is the authority.
func (SeatAllocator) CheckAvailability(ctx context.Context, q intdb.Querier, trip models.Trip) error {
	paid, err := repositories.BookingRepository{DB: q}.CountPaidForTrip(ctx, trip.ID)
	if err != nil {
		return err
	}
	if paid >= trip.VehicleCapacity {
		return domain.SeatsUnavailableError{TripID: trip.ID, Capacity: trip.VehicleCapacity}
	}
	return nil
}

// ConfirmSeat locks the trip row and consumes one seat. The conditional
// increment guards capacity even if the locked read were stale. A trip that
// is no longer scheduled has no seats to give.
func (SeatAllocator) ConfirmSeat(ctx context.Context, q intdb.Querier, tripID int64) (models.Trip, error) {
	trips := repositories.TripRepository{DB: q}
	trip, err := trips.GetByIDForUpdate(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	if trip.Status != models.TripScheduled {
		return trip, domain.TripFullError{TripID: tripID, TripStatus: string(trip.Status)}
	}
	if trip.SeatsBooked >= trip.VehicleCapacity {
		return trip, domain.TripFullError{TripID: tripID}
	}
	ok, err := trips.IncrementSeatsBooked(ctx, tripID)
	if err != nil {
		return trip, fmt.Errorf("confirm seat: %w", err)
	}
	if !ok {
		return trip, domain.TripFullError{TripID: tripID}
	}
	trip.SeatsBooked++
	return trip, nil
}
