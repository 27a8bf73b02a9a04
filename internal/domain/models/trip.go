package models

import "time"

type TripStatus string

const (
	TripScheduled TripStatus = "scheduled"
	TripDeparted  TripStatus = "departed"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// Trip is one concrete departure of a driver on a route template.
// VehicleCapacity is a snapshot taken when the trip was first created.
type Trip struct {
	ID              int64      `json:"id"`
	DriverID        int64      `json:"driverId"`
	RouteTemplateID int64      `json:"routeTemplateId"`
	DepartureTime   time.Time  `json:"departureTime"`
	VehicleCapacity int        `json:"vehicleCapacity"`
	SeatsBooked     int        `json:"seatsBooked"`
	Status          TripStatus `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (t Trip) SeatsLeft() int {
	if left := t.VehicleCapacity - t.SeatsBooked; left > 0 {
		return left
	}
	return 0
}

// TripKey identifies a trip; it is unique in storage.
type TripKey struct {
	DriverID        int64
	RouteTemplateID int64
	DepartureTime   time.Time
}

// PreviousStatuses lists the statuses from which a trip may reach s.
func (s TripStatus) PreviousStatuses() []TripStatus {
	switch s {
	case TripDeparted:
		return []TripStatus{TripScheduled}
	case TripCompleted:
		return []TripStatus{TripDeparted}
	case TripCancelled:
		return []TripStatus{TripScheduled, TripDeparted}
	default:
		return nil
	}
}
