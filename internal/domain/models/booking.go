package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingBooked    BookingStatus = "booked"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking is a rider's claim on one seat of a trip.
// BookingCode doubles as the payment provider reference.
type Booking struct {
	ID                int64         `json:"id"`
	BookingCode       string        `json:"bookingCode"`
	RiderID           int64         `json:"riderId"`
	DriverID          int64         `json:"driverId"`
	RouteTemplateID   int64         `json:"routeTemplateId"`
	TripID            int64         `json:"tripId"`
	OriginStopID      int64         `json:"originStopId"`
	DestinationStopID int64         `json:"destinationStopId"`
	Fee               int64         `json:"fee"`
	Status            BookingStatus `json:"status"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	RefundOwed        bool          `json:"refundOwed"`
	AuthorizationURL  string        `json:"authorizationUrl,omitempty"`
	PaidAt            *time.Time    `json:"paidAt,omitempty"`
	CancelledAt       *time.Time    `json:"cancelledAt,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

func (b Booking) IsPaid() bool {
	return b.Status == BookingBooked && b.PaymentStatus == PaymentPaid
}

// CreateBookingInput is the validated booking intent handed to the ledger.
type CreateBookingInput struct {
	RiderID           int64
	Email             string
	DriverID          int64
	RouteTemplateID   int64
	DepartureTime     string
	OriginStopID      int64
	DestinationStopID int64
}

// BookingIntent is the result of a successful booking creation.
type BookingIntent struct {
	Booking          Booking `json:"booking"`
	Trip             Trip    `json:"trip"`
	AuthorizationURL string  `json:"authorizationUrl"`
}
