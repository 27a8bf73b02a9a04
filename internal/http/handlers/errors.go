package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"skitro/internal/domain"
	"skitro/internal/http/middleware"
	"skitro/internal/utils"
)

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	RequestID     string `json:"request_id,omitempty"`
	Retryable     bool   `json:"retryable"`
	RefundPending bool   `json:"refund_pending,omitempty"`
	Details       any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	writeError(c, status, ErrorResponse{Code: code, Error: message, Details: details})
}

func writeError(c *gin.Context, status int, resp ErrorResponse) {
	if resp.Code == "" {
		resp.Code = http.StatusText(status)
	}
	resp.Message = resp.Error
	resp.RequestID = middleware.GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var full domain.TripFullError
	switch {
	case domain.IsValidation(err):
		writeError(c, http.StatusBadRequest, ErrorResponse{Code: "validation_error", Error: err.Error()})
	case domain.IsNotFound(err):
		writeError(c, http.StatusNotFound, ErrorResponse{Code: "not_found", Error: err.Error()})
	case domain.IsSeatsUnavailable(err):
		writeError(c, http.StatusConflict, ErrorResponse{Code: "seats_unavailable", Error: err.Error()})
	case errors.As(err, &full):
		writeError(c, http.StatusConflict, ErrorResponse{Code: "trip_full", Error: err.Error(), RefundPending: full.RefundOwed})
	case domain.IsPaymentNotSuccessful(err):
		writeError(c, http.StatusPaymentRequired, ErrorResponse{Code: "payment_not_successful", Error: err.Error()})
	case domain.IsPaymentProviderUnavailable(err):
		utils.LogError(middleware.GetRequestID(c), "http", "payment_provider", err)
		writeError(c, http.StatusServiceUnavailable, ErrorResponse{Code: "payment_provider_unavailable", Error: "payment provider unavailable, retry later", Retryable: true})
	case domain.IsConflict(err):
		writeError(c, http.StatusInternalServerError, ErrorResponse{Code: "conflict", Error: err.Error(), Retryable: true})
	default:
		utils.LogError(middleware.GetRequestID(c), "http", "internal", err)
		writeError(c, http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Error: "internal error"})
	}
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func bindingDetails(err error) any {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	out := make([]fieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
