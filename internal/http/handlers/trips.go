package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"skitro/internal/domain/models"
)

func (h Handlers) CreateTrip(c *gin.Context) {
	var req createTripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	trip, err := h.trips(c).GetOrCreateTrip(c.Request.Context(), req.DriverID, req.RouteTemplateID, req.DepartureTime)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h Handlers) GetTrip(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	trip, err := h.trips(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h Handlers) DriverTrips(c *gin.Context) {
	id, ok := paramID(c, "driverId")
	if !ok {
		return
	}
	trips, err := h.trips(c).ListByDriver(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

func (h Handlers) TripBookings(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.trips(c).Bookings(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h Handlers) DepartTrip(c *gin.Context) {
	h.transitionTrip(c, func(ctx context.Context, id int64) (models.Trip, error) {
		return h.trips(c).Depart(ctx, id)
	})
}

func (h Handlers) CompleteTrip(c *gin.Context) {
	h.transitionTrip(c, func(ctx context.Context, id int64) (models.Trip, error) {
		return h.trips(c).Complete(ctx, id)
	})
}

func (h Handlers) CancelTrip(c *gin.Context) {
	h.transitionTrip(c, func(ctx context.Context, id int64) (models.Trip, error) {
		return h.trips(c).Cancel(ctx, id)
	})
}

func (h Handlers) transitionTrip(c *gin.Context, move func(context.Context, int64) (models.Trip, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	trip, err := move(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}
