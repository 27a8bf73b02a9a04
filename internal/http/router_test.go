package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skitro/internal/domain/models"
	h "skitro/internal/http/handlers"
)

const secret = "router-secret"

var (
	tripCols = []string{"id", "driver_id", "route_template_id", "departure_time", "vehicle_capacity",
		"seats_booked", "status", "created_at", "updated_at"}
	bookingCols = []string{"id", "booking_code", "rider_id", "driver_id", "route_template_id", "trip_id",
		"origin_stop_id", "destination_stop_id", "fee", "status", "payment_status", "refund_owed",
		"authorization_url", "paid_at", "cancelled_at", "created_at", "updated_at"}
	now = time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)
)

type gateway struct {
	status    models.TransactionStatus
	verifyErr error
}

func (g gateway) InitializeTransaction(context.Context, models.InitializeTransaction) (string, error) {
	return "https://checkout/abc", nil
}

func (g gateway) VerifyTransaction(_ context.Context, ref string) (models.TransactionStatus, error) {
	st := g.status
	st.Reference = ref
	return st, g.verifyErr
}

type verifier bool

func (v verifier) VerifySignature([]byte, string) bool { return bool(v) }

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, gw gateway) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	hs := h.Handlers{DB: db, Gateway: gw, Webhooks: verifier(false), Currency: "NGN"}
	return NewRouter(hs, Options{JWTSecret: secret}), mock
}

func token(t *testing.T, id int64, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": id, "role": role}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

func call(r http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, gateway{})
	rec := call(r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, gateway{})
	rec := call(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateBooking_RequiresToken(t *testing.T) {
	r, _ := newTestRouter(t, gateway{})
	rec := call(r, http.MethodPost, "/api/bookings", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBooking_SchemaValidation(t *testing.T) {
	r, _ := newTestRouter(t, gateway{})
	rec := call(r, http.MethodPost, "/api/bookings", token(t, 11, "rider"), map[string]any{
		"driverId":          3,
		"routeTemplateId":   4,
		"departureTime":     "2026-03-01 07:30",
		"originStopId":      21,
		"destinationStopId": 21,
		"email":             "rider@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode(t, rec)["code"])
}

func TestVerifyBooking_TripFull(t *testing.T) {
	r, mock := newTestRouter(t, gateway{status: models.TransactionStatus{Status: "success", Amount: 152050}})
	code := "SKT-20260227-ABC123"

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE booking_code = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(5, code, 11, 3, 4, 9, 21, 24, int64(152050),
			"pending", "pending", false, "", nil, nil, now, now))
	mock.ExpectQuery(`FROM trips WHERE id = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(tripCols).AddRow(9, 3, 4, now, 15, 15, "scheduled", now, now))
	mock.ExpectExec(`SET refund_owed = 1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := call(r, http.MethodPost, "/api/bookings/verify", token(t, 11, "rider"), map[string]any{"reference": code})
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "trip_full", body["code"])
	assert.Equal(t, true, body["refund_pending"])
}

func TestVerifyBooking_ProviderDown(t *testing.T) {
	r, _ := newTestRouter(t, gateway{verifyErr: errors.New("dial tcp: i/o timeout")})
	rec := call(r, http.MethodGet, "/api/bookings/verify?reference=SKT-20260227-ABC123", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "payment_provider_unavailable", body["code"])
	assert.Equal(t, true, body["retryable"])
}

func TestVerifyBooking_NotPaid(t *testing.T) {
	r, _ := newTestRouter(t, gateway{status: models.TransactionStatus{Status: "failed"}})
	rec := call(r, http.MethodGet, "/api/bookings/verify?trxref=SKT-20260227-ABC123", "", nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestWebhook_BadSignature(t *testing.T) {
	r, _ := newTestRouter(t, gateway{})
	rec := call(r, http.MethodPost, "/api/payments/webhook", "", map[string]any{"event": "charge.success"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTripTransition_RiderForbidden(t *testing.T) {
	r, _ := newTestRouter(t, gateway{})
	rec := call(r, http.MethodPost, "/api/trips/9/depart", token(t, 11, "rider"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetBooking_HidesOtherRiders(t *testing.T) {
	r, mock := newTestRouter(t, gateway{})
	mock.ExpectQuery(`FROM bookings WHERE id = \?`).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(5, "SKT-20260227-ABC123", 99, 3, 4, 9, 21, 24, int64(152050),
			"booked", "paid", false, "", now, nil, now, now))

	rec := call(r, http.MethodGet, "/api/bookings/5", token(t, 11, "rider"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
