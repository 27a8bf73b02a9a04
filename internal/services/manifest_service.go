package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xuri/excelize/v2"

	"skitro/internal/domain/models"
	"skitro/internal/repositories"
	"skitro/internal/utils"
)

const manifestSheet = "Manifest"

// ManifestService exports a trip's bookings for the driver.
type ManifestService struct {
	DB        *sql.DB
	Trips     TripService
	Currency  string
	RequestID string
}

// TripManifest returns an xlsx workbook listing every booking on the trip.
func (s ManifestService) TripManifest(ctx context.Context, tripID int64) ([]byte, string, error) {
	trips := s.Trips
	if trips.DB == nil {
		trips.DB = s.DB
	}
	trip, err := trips.Get(ctx, tripID)
	if err != nil {
		return nil, "", err
	}
	bookings, err := repositories.BookingRepository{DB: trips.DB}.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, "", err
	}
	var route models.RouteTemplate
	if rt, err := (repositories.RouteTemplateRepository{DB: trips.DB}).GetWithStops(ctx, trip.RouteTemplateID); err == nil {
		route = rt
	}

	f, err := buildManifest(trip, route, bookings, s.Currency)
	if err != nil {
		return nil, "", fmt.Errorf("build manifest: %w", err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write manifest: %w", err)
	}
	utils.LogEvent(s.RequestID, "manifest", "export", fmt.Sprintf("trip_id=%d rows=%d", tripID, len(bookings)))
	name := fmt.Sprintf("MANIFEST_%d_%s.xlsx", trip.ID, trip.DepartureTime.Format("20060102_1504"))
	return buf.Bytes(), name, nil
}

func buildManifest(trip models.Trip, route models.RouteTemplate, bookings []models.Booking, currency string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", manifestSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Trip", trip.ID},
		{"Route", fmt.Sprintf("%s -> %s", route.FromName, route.ToName)},
		{"Departure", utils.FormatDateTime(trip.DepartureTime)},
		{"Status", string(trip.Status)},
		{"Seats", fmt.Sprintf("%d / %d", trip.SeatsBooked, trip.VehicleCapacity)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(manifestSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	headerRow := len(summary) + 2
	header := []any{"Booking code", "Rider", "Pickup", "Drop-off", "Fare", "Status", "Payment", "Refund owed", "Paid at"}
	hcell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(manifestSheet, hcell, &header); err != nil {
		return nil, err
	}
	endCell, _ := excelize.CoordinatesToCellName(len(header), headerRow)
	if err := f.SetCellStyle(manifestSheet, hcell, endCell, bold); err != nil {
		return nil, err
	}

	for i, b := range bookings {
		paidAt := ""
		if b.PaidAt != nil {
			paidAt = utils.FormatDateTime(*b.PaidAt)
		}
		row := []any{
			b.BookingCode,
			b.RiderID,
			stopName(route, b.OriginStopID),
			stopName(route, b.DestinationStopID),
			utils.FormatMinor(currency, b.Fee),
			string(b.Status),
			string(b.PaymentStatus),
			b.RefundOwed,
			paidAt,
		}
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(manifestSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func stopName(route models.RouteTemplate, id int64) string {
	if st, ok := route.StopByID(id); ok {
		return st.Name
	}
	return fmt.Sprintf("#%d", id)
}
