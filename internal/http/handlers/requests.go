package handlers

import (
	"strings"

	"skitro/internal/domain/models"
)

type createBookingRequest struct {
	DriverID          int64  `json:"driverId" binding:"required,gt=0"`
	RouteTemplateID   int64  `json:"routeTemplateId" binding:"required,gt=0"`
	DepartureTime     string `json:"departureTime" binding:"required"`
	OriginStopID      int64  `json:"originStopId" binding:"required,gt=0"`
	DestinationStopID int64  `json:"destinationStopId" binding:"required,gt=0,nefield=OriginStopID"`
	Email             string `json:"email" binding:"required,email"`
}

func (r createBookingRequest) toInput(riderID int64) models.CreateBookingInput {
	return models.CreateBookingInput{
		RiderID:           riderID,
		Email:             strings.TrimSpace(r.Email),
		DriverID:          r.DriverID,
		RouteTemplateID:   r.RouteTemplateID,
		DepartureTime:     strings.TrimSpace(r.DepartureTime),
		OriginStopID:      r.OriginStopID,
		DestinationStopID: r.DestinationStopID,
	}
}

type createTripRequest struct {
	DriverID        int64  `json:"driverId" binding:"required,gt=0"`
	RouteTemplateID int64  `json:"routeTemplateId" binding:"required,gt=0"`
	DepartureTime   string `json:"departureTime" binding:"required"`
}

type verifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}
