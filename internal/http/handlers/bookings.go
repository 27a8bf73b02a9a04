package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skitro/internal/domain"
	"skitro/internal/domain/models"
	"skitro/internal/http/middleware"
)

type bookingIntentResponse struct {
	Booking          models.Booking `json:"booking"`
	Trip             models.Trip    `json:"trip"`
	AuthorizationURL string         `json:"authorizationUrl"`
	Reference        string         `json:"reference"`
}

// CreateBooking records a pending booking and returns the checkout URL.
func (h Handlers) CreateBooking(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "not authorized", nil)
		return
	}
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	intent, err := h.bookings(c).CreatePendingBooking(c.Request.Context(), req.toInput(caller.UserID))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingIntentResponse{
		Booking:          intent.Booking,
		Trip:             intent.Trip,
		AuthorizationURL: intent.AuthorizationURL,
		Reference:        intent.Booking.BookingCode,
	})
}

// VerifyBooking reconciles a payment reference posted by the client.
func (h Handlers) VerifyBooking(c *gin.Context) {
	var req verifyPaymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	h.reconcile(c, req.Reference)
}

// VerifyBookingCallback is the provider redirect target (?reference= or ?trxref=).
func (h Handlers) VerifyBookingCallback(c *gin.Context) {
	ref := c.Query("reference")
	if ref == "" {
		ref = c.Query("trxref")
	}
	h.reconcile(c, ref)
}

func (h Handlers) reconcile(c *gin.Context, reference string) {
	res, err := h.payments(c).Reconcile(c.Request.Context(), reference)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) MyBookings(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "not authorized", nil)
		return
	}
	out, err := h.bookings(c).ListByRider(c.Request.Context(), caller.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h Handlers) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if !canSee(c, b) {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h Handlers) GetBookingByCode(c *gin.Context) {
	b, err := h.bookings(c).GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if !canSee(c, b) {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// RefundsOwed lists paid-but-unseated bookings for the refund flow.
func (h Handlers) RefundsOwed(c *gin.Context) {
	out, err := h.bookings(c).ListRefundOwed(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

// canSee hides other riders' bookings; staff see everything.
func canSee(c *gin.Context, b models.Booking) bool {
	caller, ok := middleware.Caller(c)
	if !ok {
		return false
	}
	return caller.Role != domain.RoleRider || caller.UserID == b.RiderID
}
