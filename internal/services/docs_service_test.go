package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"skitro/internal/domain"
)

func TestDocsServiceGenerateETicket(t *testing.T) {
	loader := func(_ context.Context, code string) (ticketData, error) {
		return ticketData{
			BookingCode:   code,
			RouteFrom:     "Lagos",
			RouteTo:       "Ibadan",
			Origin:        "Ojota",
			Destination:   "Challenge",
			DepartureTime: "2026-03-01 07:30",
			VehicleReg:    "LAG-123-XY",
			VehicleType:   "bus",
			Fee:           152050,
		}, nil
	}

	pdf, name, err := DocsService{Loader: loader, Currency: "NGN"}.GenerateETicket(context.Background(), testCode)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Equal(t, "ETICKET_"+testCode+".pdf", name)
}

func TestDocsServiceRefusesPendingBooking(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM bookings WHERE booking_code = \?`).
		WillReturnRows(bookingRows(5, testCode, "pending", "pending", false))

	_, _, err := DocsService{DB: db}.GenerateETicket(context.Background(), testCode)
	assert.True(t, domain.IsValidation(err))
}

func TestTripManifest(t *testing.T) {
	db, mock := newMockDB(t)
	route, stops := routeRows()
	mock.ExpectQuery(`FROM trips WHERE id = \?`).WithArgs(int64(9)).WillReturnRows(tripRows(9, 15, 1, "scheduled"))
	mock.ExpectQuery(`FROM bookings WHERE trip_id = \?`).WithArgs(int64(9)).
		WillReturnRows(bookingRows(5, testCode, "booked", "paid", false))
	mock.ExpectQuery(`FROM route_templates`).WillReturnRows(route)
	mock.ExpectQuery(`FROM route_stops`).WillReturnRows(stops)

	raw, name, err := ManifestService{DB: db, Currency: "NGN"}.TripManifest(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST_9_20260301_0730.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	code, err := f.GetCellValue(manifestSheet, "A8")
	require.NoError(t, err)
	assert.Equal(t, testCode, code)
	pickup, err := f.GetCellValue(manifestSheet, "C8")
	require.NoError(t, err)
	assert.Equal(t, "Ojota", pickup)
}
