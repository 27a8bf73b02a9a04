package handlers

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	"skitro/internal/http/middleware"
	"skitro/internal/services"
)

// Handlers carries the process dependencies; services are built per request
// so each one logs with the request id.
type Handlers struct {
	DB             *sql.DB
	Gateway        services.PaymentGateway
	Webhooks       services.WebhookVerifier
	Events         services.EventPublisher
	Currency       string
	CallbackURL    string
	PaymentTimeout time.Duration
}

func (h Handlers) trips(c *gin.Context) services.TripService {
	return services.TripService{DB: h.DB, RequestID: middleware.GetRequestID(c)}
}

func (h Handlers) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{
		DB:          h.DB,
		Trips:       h.trips(c),
		Payments:    h.Gateway,
		Currency:    h.Currency,
		CallbackURL: h.CallbackURL,
		RequestID:   middleware.GetRequestID(c),
	}
}

func (h Handlers) payments(c *gin.Context) services.PaymentService {
	return services.PaymentService{
		Provider:  h.Gateway,
		Webhooks:  h.Webhooks,
		Bookings:  h.bookings(c),
		Events:    h.Events,
		Timeout:   h.PaymentTimeout,
		RequestID: middleware.GetRequestID(c),
	}
}
