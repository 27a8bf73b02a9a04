package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skitro/internal/domain"
	"skitro/internal/domain/models"
	"skitro/internal/events"
	"skitro/internal/metrics"
	"skitro/internal/payment"
	"skitro/internal/utils"
)

type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type WebhookVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

const chargeSuccessEvent = "charge.success"

// PaymentService reconciles provider payment state with the booking ledger.
type PaymentService struct {
	Provider  PaymentGateway
	Webhooks  WebhookVerifier
	Bookings  BookingService
	Events    EventPublisher
	Timeout   time.Duration
	RequestID string
}

// Reconcile asks the provider about reference and, on success, applies the
// payment. Provider state is read before any row is locked.
func (s PaymentService) Reconcile(ctx context.Context, reference string) (models.ReconcileResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return models.ReconcileResult{}, domain.ValidationError{Field: "reference", Msg: "required"}
	}

	st, err := s.verify(ctx, reference)
	if err != nil {
		metrics.ReconcileOutcomes.WithLabelValues("provider_unavailable").Inc()
		return models.ReconcileResult{}, err
	}
	if !st.Successful() {
		metrics.ReconcileOutcomes.WithLabelValues("not_successful").Inc()
		utils.LogEvent(s.RequestID, "payments", "reconcile_rejected", fmt.Sprintf("reference=%s status=%s", reference, st.Status))
		return models.ReconcileResult{}, domain.PaymentNotSuccessfulError{Reference: reference, Status: st.Status}
	}

	bookings := s.Bookings
	bookings.RequestID = s.RequestID
	res, err := bookings.markPaid(ctx, reference, &st)
	switch {
	case err == nil && res.AlreadyApplied:
		metrics.ReconcileOutcomes.WithLabelValues("already_applied").Inc()
	case err == nil:
		metrics.ReconcileOutcomes.WithLabelValues("confirmed").Inc()
		s.publish(ctx, events.KeyBookingConfirmed, res.Booking, false)
	case domain.IsTripFull(err):
		metrics.ReconcileOutcomes.WithLabelValues("trip_full").Inc()
		s.publish(ctx, events.KeyBookingRefundOwed, res.Booking, true)
	default:
		metrics.ReconcileOutcomes.WithLabelValues("error").Inc()
	}
	return res, err
}

func (s PaymentService) verify(ctx context.Context, reference string) (models.TransactionStatus, error) {
	if s.Provider == nil {
		return models.TransactionStatus{}, domain.PaymentProviderUnavailableError{Op: "verify", Err: errors.New("payment provider not configured")}
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	st, err := s.Provider.VerifyTransaction(ctx, reference)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("verify").Inc()
		if !domain.IsPaymentProviderUnavailable(err) {
			err = domain.PaymentProviderUnavailableError{Op: "verify", Err: err}
		}
		return models.TransactionStatus{}, err
	}
	return st, nil
}

// publish runs after commit; a broker failure is logged and never undoes
// the ledger change.
func (s PaymentService) publish(ctx context.Context, key string, b models.Booking, refundOwed bool) {
	if s.Events == nil {
		return
	}
	ev := events.BookingEvent{
		BookingCode: b.BookingCode,
		BookingID:   b.ID,
		TripID:      b.TripID,
		RiderID:     b.RiderID,
		Fee:         b.Fee,
		RefundOwed:  refundOwed,
		OccurredAt:  utils.NowUTC(),
	}
	if err := s.Events.PublishJSON(ctx, key, ev); err != nil {
		utils.LogError(s.RequestID, "payments", "publish_"+key, err)
	}
}

// HandleWebhook authenticates a provider push and reconciles the referenced
// booking. The payload is only a hint; state is always re-read from the
// provider. Events other than charge.success are acknowledged and ignored.
func (s PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (bool, error) {
	if s.Webhooks == nil || !s.Webhooks.VerifySignature(body, signature) {
		return false, domain.ValidationError{Field: "x-paystack-signature", Msg: "invalid signature"}
	}
	ev, err := payment.ParseWebhook(body)
	if err != nil {
		return false, err
	}
	if ev.Event != chargeSuccessEvent || strings.TrimSpace(ev.Data.Reference) == "" {
		utils.LogEvent(s.RequestID, "payments", "webhook_ignored", "event="+ev.Event)
		return false, nil
	}
	if _, err := s.Reconcile(ctx, ev.Data.Reference); err != nil {
		return true, err
	}
	return true, nil
}
