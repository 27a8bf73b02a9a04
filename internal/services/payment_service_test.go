package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skitro/internal/domain"
	"skitro/internal/domain/models"
	"skitro/internal/events"
)

func newPaymentService(t *testing.T, gw *fakeGateway) (PaymentService, sqlmock.Sqlmock, *fakePublisher) {
	bookings, mock := newBookingService(t, gw)
	pub := &fakePublisher{}
	return PaymentService{
		Provider: gw,
		Webhooks: staticVerifier(true),
		Bookings: bookings,
		Events:   pub,
	}, mock, pub
}

func successStatus(amount int64) models.TransactionStatus {
	return models.TransactionStatus{Status: models.ProviderStatusSuccess, Amount: amount, Currency: "NGN"}
}

func expectConfirm(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE booking_code = \? FOR UPDATE`).
		WithArgs(testCode).
		WillReturnRows(bookingRows(5, testCode, "pending", "pending", false))
	mock.ExpectQuery(`FROM trips WHERE id = \? FOR UPDATE`).
		WillReturnRows(tripRows(9, 15, 0, "scheduled"))
	mock.ExpectExec(`seats_booked < vehicle_capacity`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status = \?, payment_status = \?`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM bookings WHERE id = \?`).
		WillReturnRows(bookingRows(5, testCode, "booked", "paid", false))
	mock.ExpectCommit()
}

// Scenario: single rider pays and gets the seat.
func TestReconcile_Confirms(t *testing.T) {
	gw := &fakeGateway{status: successStatus(152050)}
	svc, mock, pub := newPaymentService(t, gw)
	expectConfirm(mock)

	res, err := svc.Reconcile(context.Background(), testCode)
	require.NoError(t, err)
	assert.True(t, res.Booking.IsPaid())
	require.Len(t, pub.sent, 1)
	assert.Equal(t, events.KeyBookingConfirmed, pub.sent[0].key)
	ev := pub.sent[0].v.(events.BookingEvent)
	assert.Equal(t, testCode, ev.BookingCode)
	assert.False(t, ev.RefundOwed)
}

// Scenario: the provider reports the same payment twice.
func TestReconcile_SecondCallIsNoop(t *testing.T) {
	gw := &fakeGateway{status: successStatus(152050)}
	svc, mock, pub := newPaymentService(t, gw)
	expectConfirm(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE booking_code = \? FOR UPDATE`).
		WillReturnRows(bookingRows(5, testCode, "booked", "paid", false))
	mock.ExpectCommit()

	_, err := svc.Reconcile(context.Background(), testCode)
	require.NoError(t, err)
	res, err := svc.Reconcile(context.Background(), testCode)
	require.NoError(t, err)
	assert.True(t, res.AlreadyApplied)
	assert.Len(t, pub.sent, 1, "no second event for an applied payment")
}

// Scenario: the last seat went to another rider first.
func TestReconcile_TripFullOwesRefund(t *testing.T) {
	gw := &fakeGateway{status: successStatus(152050)}
	svc, mock, pub := newPaymentService(t, gw)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(bookingRows(5, testCode, "pending", "pending", false))
	mock.ExpectQuery(`FROM trips WHERE id = \? FOR UPDATE`).WillReturnRows(tripRows(9, 15, 14, "scheduled"))
	mock.ExpectExec(`seats_booked < vehicle_capacity`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SET refund_owed = 1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Reconcile(context.Background(), testCode)
	var full domain.TripFullError
	require.True(t, errors.As(err, &full))
	assert.True(t, full.RefundOwed)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, events.KeyBookingRefundOwed, pub.sent[0].key)
}

func TestReconcile_NotSuccessfulTouchesNothing(t *testing.T) {
	gw := &fakeGateway{status: models.TransactionStatus{Status: "abandoned"}}
	svc, _, pub := newPaymentService(t, gw)

	_, err := svc.Reconcile(context.Background(), testCode)
	var ns domain.PaymentNotSuccessfulError
	require.True(t, errors.As(err, &ns))
	assert.Equal(t, "abandoned", ns.Status)
	assert.Empty(t, pub.sent)
}

func TestReconcile_ProviderUnavailable(t *testing.T) {
	gw := &fakeGateway{verifyErr: context.DeadlineExceeded}
	svc, _, _ := newPaymentService(t, gw)

	_, err := svc.Reconcile(context.Background(), testCode)
	assert.True(t, domain.IsPaymentProviderUnavailable(err))
	assert.True(t, domain.IsRetryable(err))
}

func TestReconcile_Underpaid(t *testing.T) {
	gw := &fakeGateway{status: successStatus(1000)}
	svc, mock, pub := newPaymentService(t, gw)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(bookingRows(5, testCode, "pending", "pending", false))
	mock.ExpectRollback()

	_, err := svc.Reconcile(context.Background(), testCode)
	assert.True(t, domain.IsPaymentNotSuccessful(err))
	assert.Empty(t, pub.sent)
}

func TestReconcile_UnknownBooking(t *testing.T) {
	gw := &fakeGateway{status: successStatus(152050)}
	svc, mock, _ := newPaymentService(t, gw)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectRollback()

	_, err := svc.Reconcile(context.Background(), testCode)
	assert.True(t, domain.IsNotFound(err))
}

func TestReconcile_EmptyReference(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newPaymentService(t, gw)

	_, err := svc.Reconcile(context.Background(), "  ")
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, gw.verifyCalls)
}

func TestHandleWebhook(t *testing.T) {
	gw := &fakeGateway{status: successStatus(152050)}
	svc, mock, _ := newPaymentService(t, gw)
	expectConfirm(mock)

	handled, err := svc.HandleWebhook(context.Background(),
		[]byte(`{"event":"charge.success","data":{"reference":"`+testCode+`","status":"success"}}`), "sig")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, gw.verifyCalls, "webhook payload is re-verified with the provider")
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newPaymentService(t, gw)

	handled, err := svc.HandleWebhook(context.Background(), []byte(`{"event":"transfer.success","data":{"reference":"x"}}`), "sig")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Zero(t, gw.verifyCalls)
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newPaymentService(t, gw)
	svc.Webhooks = staticVerifier(false)

	_, err := svc.HandleWebhook(context.Background(), []byte(`{}`), "nope")
	assert.True(t, domain.IsValidation(err))
}
