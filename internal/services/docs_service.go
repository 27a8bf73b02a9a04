package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"skitro/internal/domain"
	"skitro/internal/domain/models"
	"skitro/internal/repositories"
	"skitro/internal/utils"
)

// DocsService renders rider documents as PDF.
type DocsService struct {
	DB        *sql.DB
	Currency  string
	RequestID string
	Loader    func(ctx context.Context, code string) (ticketData, error)
}

type ticketData struct {
	BookingCode   string
	RiderID       int64
	RouteFrom     string
	RouteTo       string
	Origin        string
	Destination   string
	DepartureTime string
	VehicleReg    string
	VehicleType   string
	Fee           int64
	PaidAt        string
}

// GenerateETicket builds the e-ticket for a booked booking.
func (s DocsService) GenerateETicket(ctx context.Context, code string) ([]byte, string, error) {
	data, err := s.load(ctx, code)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", "booking_code="+data.BookingCode)
	return buildETicketPDF(data, s.Currency)
}

func (s DocsService) load(ctx context.Context, code string) (ticketData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, code)
	}
	b, err := repositories.BookingRepository{DB: s.DB}.GetByCode(ctx, code)
	if err != nil {
		return ticketData{}, err
	}
	if b.Status != models.BookingBooked {
		return ticketData{}, domain.ValidationError{Field: "code", Msg: "e-ticket is only issued for booked bookings"}
	}
	trip, err := repositories.TripRepository{DB: s.DB}.GetByID(ctx, b.TripID)
	if err != nil {
		return ticketData{}, err
	}
	route, err := repositories.RouteTemplateRepository{DB: s.DB}.GetWithStops(ctx, b.RouteTemplateID)
	if err != nil {
		return ticketData{}, err
	}
	out := ticketData{
		BookingCode:   b.BookingCode,
		RiderID:       b.RiderID,
		RouteFrom:     route.FromName,
		RouteTo:       route.ToName,
		DepartureTime: utils.FormatDateTime(trip.DepartureTime),
		Fee:           b.Fee,
	}
	if st, ok := route.StopByID(b.OriginStopID); ok {
		out.Origin = st.Name
	}
	if st, ok := route.StopByID(b.DestinationStopID); ok {
		out.Destination = st.Name
	}
	if b.PaidAt != nil {
		out.PaidAt = utils.FormatDateTime(*b.PaidAt)
	}
	if d, err := (repositories.DriverRepository{DB: s.DB}).GetByID(ctx, b.DriverID); err == nil {
		out.VehicleReg = d.VehicleRegNumber
		out.VehicleType = d.VehicleType
	}
	return out, nil
}

func buildETicketPDF(d ticketData, currency string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+d.BookingCode, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "SKITRO E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking code : %s", d.BookingCode),
		fmt.Sprintf("Route        : %s -> %s", orDash(d.RouteFrom), orDash(d.RouteTo)),
		fmt.Sprintf("Pickup       : %s", orDash(d.Origin)),
		fmt.Sprintf("Drop-off     : %s", orDash(d.Destination)),
		fmt.Sprintf("Departure    : %s", orDash(d.DepartureTime)),
		fmt.Sprintf("Vehicle      : %s %s", orDash(d.VehicleType), d.VehicleReg),
		fmt.Sprintf("Fare         : %s", utils.FormatMinor(currency, d.Fee)),
		fmt.Sprintf("Paid at      : %s", orDash(d.PaidAt)),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Valid for one seat. Show this ticket to the driver at pickup.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ETICKET_%s.pdf", utils.SafeFilenamePart(d.BookingCode)), nil
}

func orDash(v string) string {
	if v = utils.TrimOrEmpty(v); v == "" {
		return "-"
	}
	return v
}
