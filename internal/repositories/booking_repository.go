package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "skitro/internal/db"
	"skitro/internal/domain"
	"skitro/internal/domain/models"
)

const bookingColumns = `id, booking_code, rider_id, driver_id, route_template_id, trip_id,
	origin_stop_id, destination_stop_id, fee, status, payment_status, refund_owed,
	authorization_url, paid_at, cancelled_at, created_at, updated_at`

type BookingRepository struct {
	DB intdb.Querier
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b                     models.Booking
		status, paymentStatus string
		paidAt, cancelledAt   sql.NullTime
	)
	err := row.Scan(
		&b.ID,
		&b.BookingCode,
		&b.RiderID,
		&b.DriverID,
		&b.RouteTemplateID,
		&b.TripID,
		&b.OriginStopID,
		&b.DestinationStopID,
		&b.Fee,
		&status,
		&paymentStatus,
		&b.RefundOwed,
		&b.AuthorizationURL,
		&paidAt,
		&cancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}
	b.Status = models.BookingStatus(status)
	b.PaymentStatus = models.PaymentStatus(paymentStatus)
	if paidAt.Valid {
		t := paidAt.Time
		b.PaidAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	return b, nil
}

func (r BookingRepository) getOne(ctx context.Context, query string, args ...any) (models.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r BookingRepository) list(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Insert writes a pending/pending booking. A duplicate booking_code is
// returned as-is so callers can detect it with intdb.IsDuplicateKey.
func (r BookingRepository) Insert(ctx context.Context, b models.Booking) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO bookings (booking_code, rider_id, driver_id, route_template_id, trip_id,
			origin_stop_id, destination_stop_id, fee, status, payment_status, refund_owed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		b.BookingCode,
		b.RiderID,
		b.DriverID,
		b.RouteTemplateID,
		b.TripID,
		b.OriginStopID,
		b.DestinationStopID,
		b.Fee,
		string(models.BookingPending),
		string(models.PaymentPending),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r BookingRepository) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? LIMIT 1`, id)
}

func (r BookingRepository) GetByCode(ctx context.Context, code string) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_code = ? LIMIT 1`, code)
}

// GetByCodeForUpdate locks the booking row until the surrounding transaction ends.
func (r BookingRepository) GetByCodeForUpdate(ctx context.Context, code string) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_code = ? FOR UPDATE`, code)
}

// CountPaidForTrip counts bookings holding a confirmed seat on the trip.
func (r BookingRepository) CountPaidForTrip(ctx context.Context, tripID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE trip_id = ? AND status = ? AND payment_status = ?`,
		tripID, string(models.BookingBooked), string(models.PaymentPaid)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count paid bookings: %w", err)
	}
	return n, nil
}

// MarkBookedPaid moves a pending booking to booked/paid. False means the row
// was not pending anymore.
func (r BookingRepository) MarkBookedPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE bookings SET status = ?, payment_status = ?, refund_owed = 0, paid_at = ?
		WHERE id = ? AND status = ? AND payment_status = ?`,
		string(models.BookingBooked), string(models.PaymentPaid), at,
		id, string(models.BookingPending), string(models.PaymentPending))
	if err != nil {
		return false, fmt.Errorf("mark booking paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FlagRefundOwed records that money arrived for a booking that got no seat.
func (r BookingRepository) FlagRefundOwed(ctx context.Context, id int64) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE bookings SET refund_owed = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("flag refund owed: %w", err)
	}
	return nil
}

func (r BookingRepository) SetAuthorizationURL(ctx context.Context, id int64, url string) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE bookings SET authorization_url = ? WHERE id = ?`, url, id); err != nil {
		return fmt.Errorf("set authorization url: %w", err)
	}
	return nil
}

func (r BookingRepository) ListByRider(ctx context.Context, riderID int64) ([]models.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE rider_id = ? ORDER BY created_at DESC, id DESC`, riderID)
}

func (r BookingRepository) ListByTrip(ctx context.Context, tripID int64) ([]models.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE trip_id = ? ORDER BY id ASC`, tripID)
}

func (r BookingRepository) ListRefundOwed(ctx context.Context) ([]models.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE refund_owed = 1 AND payment_status = ? ORDER BY updated_at ASC, id ASC`, string(models.PaymentPending))
}
