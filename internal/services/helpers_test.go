package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"skitro/internal/domain/models"
)

var (
	tripCols = []string{"id", "driver_id", "route_template_id", "departure_time", "vehicle_capacity",
		"seats_booked", "status", "created_at", "updated_at"}
	bookingCols = []string{"id", "booking_code", "rider_id", "driver_id", "route_template_id", "trip_id",
		"origin_stop_id", "destination_stop_id", "fee", "status", "payment_status", "refund_owed",
		"authorization_url", "paid_at", "cancelled_at", "created_at", "updated_at"}
	driverCols = []string{"id", "user_id", "vehicle_reg_number", "vehicle_type", "vehicle_capacity"}
	routeCols  = []string{"id", "from_name", "to_name", "base_fare", "price_per_km"}
	stopCols   = []string{"id", "route_template_id", "name", "lat", "lng", "seq"}

	testDeparture = time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)
	testNow       = time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)
)

const testCode = "SKT-20260227-ABC123"

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func tripRows(id int64, capacity, booked int, status string) *sqlmock.Rows {
	return sqlmock.NewRows(tripCols).AddRow(id, 3, 4, testDeparture, capacity, booked, status, testNow, testNow)
}

func bookingRows(id int64, code, status, payment string, refundOwed bool) *sqlmock.Rows {
	var paidAt any
	if payment == "paid" {
		paidAt = testNow
	}
	return sqlmock.NewRows(bookingCols).AddRow(id, code, 11, 3, 4, 9, 21, 24, int64(152050),
		status, payment, refundOwed, "https://checkout/abc", paidAt, nil, testNow, testNow)
}

func routeRows() (*sqlmock.Rows, *sqlmock.Rows) {
	route := sqlmock.NewRows(routeCols).AddRow(4, "Lagos", "Ibadan", int64(50000), int64(200))
	stops := sqlmock.NewRows(stopCols).
		AddRow(21, 4, "Ojota", 6.5244, 3.3792, 1).
		AddRow(22, 4, "Berger", 6.6400, 3.3600, 2).
		AddRow(24, 4, "Challenge", 7.3775, 3.9470, 3)
	return route, stops
}

type fakeGateway struct {
	url       string
	initErr   error
	status    models.TransactionStatus
	verifyErr error

	initCalls   int
	verifyCalls int
	lastInit    models.InitializeTransaction
}

func (f *fakeGateway) InitializeTransaction(_ context.Context, in models.InitializeTransaction) (string, error) {
	f.initCalls++
	f.lastInit = in
	return f.url, f.initErr
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, reference string) (models.TransactionStatus, error) {
	f.verifyCalls++
	st := f.status
	if st.Reference == "" {
		st.Reference = reference
	}
	return st, f.verifyErr
}

type published struct {
	key string
	v   any
}

type fakePublisher struct {
	sent []published
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.sent = append(p.sent, published{key: key, v: v})
	return nil
}

type staticVerifier bool

func (v staticVerifier) VerifySignature([]byte, string) bool { return bool(v) }

func fixedCodes(codes ...string) func(time.Time) string {
	i := 0
	return func(time.Time) string {
		c := codes[i%len(codes)]
		i++
		return c
	}
}
