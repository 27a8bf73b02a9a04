package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	intdb "skitro/internal/db"
	"skitro/internal/domain"
	"skitro/internal/domain/models"
	"skitro/internal/metrics"
	"skitro/internal/repositories"
	"skitro/internal/utils"
)

// PaymentGateway is the slice of the payment provider the booking flow needs.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, in models.InitializeTransaction) (string, error)
	VerifyTransaction(ctx context.Context, reference string) (models.TransactionStatus, error)
}

type BookingService struct {
	DB          *sql.DB
	Trips       TripService
	Seats       SeatAllocator
	Payments    PaymentGateway
	Currency    string
	CallbackURL string
	RequestID   string

	// Now and NewCode are replaceable in tests.
	Now     func() time.Time
	NewCode func(time.Time) string
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

func (s BookingService) code(at time.Time) string {
	if s.NewCode != nil {
		return s.NewCode(at)
	}
	return NewBookingCode(at)
}

// NewBookingCode returns SKT-YYYYMMDD-XXXXXX with a random upper-case suffix.
func NewBookingCode(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("SKT-%s-%s", at.UTC().Format("20060102"), suffix)
}

func validateCreateInput(in models.CreateBookingInput) error {
	if in.RiderID <= 0 {
		return domain.ValidationError{Field: "riderId", Msg: "required"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return domain.ValidationError{Field: "email", Msg: "required"}
	}
	if in.OriginStopID <= 0 {
		return domain.ValidationError{Field: "originStopId", Msg: "required"}
	}
	if in.DestinationStopID <= 0 {
		return domain.ValidationError{Field: "destinationStopId", Msg: "required"}
	}
	if in.OriginStopID == in.DestinationStopID {
		return domain.ValidationError{Field: "destinationStopId", Msg: "must differ from originStopId"}
	}
	return nil
}

// CreatePendingBooking records a booking intent and opens its payment.
// Trip resolution, the advisory seat check, the insert and the provider
// call share one transaction: a provider failure leaves nothing behind.
func (s BookingService) CreatePendingBooking(ctx context.Context, in models.CreateBookingInput) (models.BookingIntent, error) {
	if err := validateCreateInput(in); err != nil {
		return models.BookingIntent{}, err
	}
	key, err := ParseTripKey(in.DriverID, in.RouteTemplateID, in.DepartureTime)
	if err != nil {
		return models.BookingIntent{}, err
	}

	var intent models.BookingIntent
	err = intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		route, err := repositories.RouteTemplateRepository{DB: tx}.GetWithStops(ctx, key.RouteTemplateID)
		if err != nil {
			return err
		}
		origin, ok := route.StopByID(in.OriginStopID)
		if !ok {
			return domain.ValidationError{Field: "originStopId", Msg: "stop is not on this route"}
		}
		dest, ok := route.StopByID(in.DestinationStopID)
		if !ok {
			return domain.ValidationError{Field: "destinationStopId", Msg: "stop is not on this route"}
		}

		trips := s.Trips
		trips.RequestID = s.RequestID
		trip, err := trips.getOrCreate(ctx, tx, key)
		if err != nil {
			return err
		}
		if trip.Status != models.TripScheduled {
			return domain.ValidationError{Field: "departureTime", Msg: fmt.Sprintf("trip is %s", trip.Status)}
		}
		if err := s.Seats.CheckAvailability(ctx, tx, trip); err != nil {
			return err
		}

		fee := utils.ComputeFare(route.BaseFare, route.PricePerKm,
			utils.HaversineKm(origin.Lat, origin.Lng, dest.Lat, dest.Lng))

		b := models.Booking{
			RiderID:           in.RiderID,
			DriverID:          key.DriverID,
			RouteTemplateID:   key.RouteTemplateID,
			TripID:            trip.ID,
			OriginStopID:      origin.ID,
			DestinationStopID: dest.ID,
			Fee:               fee,
		}
		id, code, err := s.insertWithFreshCode(ctx, tx, b)
		if err != nil {
			return err
		}

		authURL, err := s.initializePayment(ctx, in.Email, code, fee, trip.ID)
		if err != nil {
			return err
		}

		bookings := repositories.BookingRepository{DB: tx}
		if err := bookings.SetAuthorizationURL(ctx, id, authURL); err != nil {
			return err
		}
		saved, err := bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		intent = models.BookingIntent{Booking: saved, Trip: trip, AuthorizationURL: authURL}
		return nil
	})
	if err != nil {
		return models.BookingIntent{}, asConflict("booking", err)
	}

	metrics.BookingsCreated.Inc()
	utils.LogEvent(s.RequestID, "bookings", "create_pending",
		fmt.Sprintf("booking_code=%s trip_id=%d fee=%d", intent.Booking.BookingCode, intent.Trip.ID, intent.Booking.Fee))
	return intent, nil
}

// insertWithFreshCode inserts b, retrying once with a new code if the first
// one collides on the unique key.
func (s BookingService) insertWithFreshCode(ctx context.Context, q intdb.Querier, b models.Booking) (int64, string, error) {
	bookings := repositories.BookingRepository{DB: q}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		b.BookingCode = s.code(s.now())
		id, err := bookings.Insert(ctx, b)
		if err == nil {
			return id, b.BookingCode, nil
		}
		if !intdb.IsDuplicateKey(err) {
			return 0, "", fmt.Errorf("insert booking: %w", err)
		}
		lastErr = err
		utils.LogEvent(s.RequestID, "bookings", "code_collision", "booking_code="+b.BookingCode)
	}
	return 0, "", domain.ConflictError{Resource: "booking", Msg: "booking code collision", Err: lastErr}
}

func (s BookingService) initializePayment(ctx context.Context, email, code string, fee, tripID int64) (string, error) {
	if s.Payments == nil {
		return "", domain.PaymentProviderUnavailableError{Op: "initialize", Err: errors.New("payment provider not configured")}
	}
	url, err := s.Payments.InitializeTransaction(ctx, models.InitializeTransaction{
		Reference:   code,
		Email:       strings.TrimSpace(email),
		AmountMinor: fee,
		Currency:    s.Currency,
		CallbackURL: s.CallbackURL,
		Metadata:    map[string]any{"bookingCode": code, "tripId": tripID},
	})
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("initialize").Inc()
		if !domain.IsPaymentProviderUnavailable(err) {
			err = domain.PaymentProviderUnavailableError{Op: "initialize", Err: err}
		}
		return "", err
	}
	return url, nil
}

// MarkPaid applies a confirmed payment to the booking with code. Calling it
// again for a paid booking returns the booking unchanged.
func (s BookingService) MarkPaid(ctx context.Context, code string) (models.ReconcileResult, error) {
	return s.markPaid(ctx, code, nil)
}

// markPaid locks the booking and then the trip, always in that order. When
// the trip is full the refund flag is committed and TripFullError returned.
// A non-nil paid status is checked against the fee before anything changes.
func (s BookingService) markPaid(ctx context.Context, code string, paid *models.TransactionStatus) (models.ReconcileResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.ReconcileResult{}, domain.ValidationError{Field: "reference", Msg: "required"}
	}

	var (
		result   models.ReconcileResult
		tripFull error
	)
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		bookings := repositories.BookingRepository{DB: tx}
		b, err := bookings.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if b.IsPaid() {
			result = models.ReconcileResult{Booking: b, AlreadyApplied: true}
			return nil
		}
		if b.Status != models.BookingPending || b.PaymentStatus != models.PaymentPending {
			return domain.ValidationError{Field: "reference", Msg: fmt.Sprintf("booking is %s/%s", b.Status, b.PaymentStatus)}
		}
		if paid != nil && paid.Amount > 0 && paid.Amount < b.Fee {
			return domain.PaymentNotSuccessfulError{Reference: code, Status: "amount_mismatch"}
		}

		if _, err := s.Seats.ConfirmSeat(ctx, tx, b.TripID); err != nil {
			var full domain.TripFullError
			if !errors.As(err, &full) {
				return err
			}
			if !b.RefundOwed {
				if err := bookings.FlagRefundOwed(ctx, b.ID); err != nil {
					return err
				}
			}
			b.RefundOwed = true
			result = models.ReconcileResult{Booking: b}
			tripFull = domain.TripFullError{TripID: b.TripID, BookingCode: code, RefundOwed: true, TripStatus: full.TripStatus}
			return nil
		}

		ok, err := bookings.MarkBookedPaid(ctx, b.ID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return domain.ConflictError{Resource: "booking", Msg: "booking changed while locked"}
		}
		b, err = bookings.GetByID(ctx, b.ID)
		if err != nil {
			return err
		}
		result = models.ReconcileResult{Booking: b}
		return nil
	})
	if err != nil {
		return models.ReconcileResult{}, asConflict("booking", err)
	}
	if tripFull != nil {
		metrics.RefundsOwed.Inc()
		utils.LogEvent(s.RequestID, "bookings", "refund_owed", "booking_code="+code)
		return result, tripFull
	}
	if !result.AlreadyApplied {
		metrics.SeatsConfirmed.Inc()
		utils.LogEvent(s.RequestID, "bookings", "mark_paid", "booking_code="+code)
	}
	return result, nil
}

func (s BookingService) Get(ctx context.Context, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "invalid id"}
	}
	return repositories.BookingRepository{DB: s.DB}.GetByID(ctx, id)
}

func (s BookingService) GetByCode(ctx context.Context, code string) (models.Booking, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Booking{}, domain.ValidationError{Field: "code", Msg: "required"}
	}
	return repositories.BookingRepository{DB: s.DB}.GetByCode(ctx, code)
}

func (s BookingService) ListByRider(ctx context.Context, riderID int64) ([]models.Booking, error) {
	return repositories.BookingRepository{DB: s.DB}.ListByRider(ctx, riderID)
}

// ListRefundOwed feeds the external refund flow.
func (s BookingService) ListRefundOwed(ctx context.Context) ([]models.Booking, error) {
	return repositories.BookingRepository{DB: s.DB}.ListRefundOwed(ctx)
}
