package handlers

import (
	"github.com/gin-gonic/gin"

	"skitro/internal/domain"
	"skitro/internal/http/middleware"
	"skitro/internal/services"
)

// GetETicketPDF returns the e-ticket of a booked booking (inline).
func (h Handlers) GetETicketPDF(c *gin.Context) {
	code := c.Param("code")
	b, err := h.bookings(c).GetByCode(c.Request.Context(), code)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if !canSee(c, b) {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}

	svc := services.DocsService{DB: h.DB, Currency: h.Currency, RequestID: middleware.GetRequestID(c)}
	pdf, filename, err := svc.GenerateETicket(c.Request.Context(), b.BookingCode)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendFile(c, "application/pdf", filename, pdf)
}

// GetTripManifest returns the trip booking list as xlsx.
func (h Handlers) GetTripManifest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	svc := services.ManifestService{DB: h.DB, Trips: h.trips(c), Currency: h.Currency, RequestID: middleware.GetRequestID(c)}
	raw, filename, err := svc.TripManifest(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendFile(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, raw)
}
