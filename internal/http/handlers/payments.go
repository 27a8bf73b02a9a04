package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"skitro/internal/domain"
)

const (
	maxWebhookBody  = 1 << 20
	signatureHeader = "x-paystack-signature"
)

// PaystackWebhook acknowledges provider pushes. A payment that could not be
// applied for a business reason is still acknowledged so the provider stops
// retrying; only retryable failures return 5xx.
func (h Handlers) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "cannot read body", nil)
		return
	}
	handled, err := h.payments(c).HandleWebhook(c.Request.Context(), body, c.GetHeader(signatureHeader))
	var ve domain.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": handled})
	case errors.As(err, &ve) && ve.Field == signatureHeader:
		respondError(c, http.StatusUnauthorized, "invalid_signature", err.Error(), nil)
	case !handled:
		RespondDomainError(c, err)
	case domain.IsRetryable(err):
		RespondDomainError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": handled, "outcome": err.Error()})
	}
}
