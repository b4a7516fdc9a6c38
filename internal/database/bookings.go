package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
)

const bookingColumns = `id, reference, booking_number, customer_id, date, slot_hours,
	total_amount, advance_payment, remaining_payment, status,
	COALESCE(payment_method, ''), COALESCE(payment_proof_ref, ''),
	pending_expires_at, COALESCE(cancelled_reason, ''), created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var dateStr, hoursJSON string
	var expiresAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.Reference, &b.BookingNumber, &b.CustomerID, &dateStr, &hoursJSON,
		&b.TotalAmount, &b.AdvancePayment, &b.RemainingPayment, &b.Status,
		&b.PaymentMethod, &b.PaymentProofRef,
		&expiresAt, &b.CancelledReason, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	if b.Date, err = models.ParseDateKey(dateStr); err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	if err := json.Unmarshal([]byte(hoursJSON), &b.SlotHours); err != nil {
		return nil, fmt.Errorf("failed to decode slot hours: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		b.PendingExpiresAt = &t
	}
	return b, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.Slots, err = db.getBookingSlots(ctx, id); err != nil {
		return nil, err
	}
	return booking, nil
}

func (db *DB) getBookingSlots(ctx context.Context, bookingID int64) ([]models.BookingSlot, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT hour, rate, is_night FROM booking_slots WHERE booking_id = ? ORDER BY hour ASC`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking slots: %w", err)
	}
	defer rows.Close()

	var slots []models.BookingSlot
	for rows.Next() {
		var s models.BookingSlot
		if err := rows.Scan(&s.Hour, &s.Rate, &s.IsNight); err != nil {
			return nil, fmt.Errorf("failed to scan booking slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ApproveBooking moves a pending booking to approved and flips its cells
// Pending→Booked. Valid only from pending; the sweeper runs first at the
// service layer, so an expired hold reads as cancelled here.
func (db *DB) ApproveBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := db.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	lock := db.dateLock(models.DateKey(booking.Date))
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to re-read booking: %w", err)
	}
	if current.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: cannot approve booking in status %q", domain.ErrInvalidTransition, current.Status)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, pending_expires_at = NULL, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		models.StatusApproved, time.Now(), id, current.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to approve booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, domain.ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE slot_cells SET status = ? WHERE booking_id = ?`, models.SlotBooked, id,
	); err != nil {
		return nil, fmt.Errorf("failed to confirm slot cells: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, id)
}

// RejectBooking cancels a pending or approved booking with an admin-supplied
// reason and returns its cells to available.
func (db *DB) RejectBooking(ctx context.Context, id int64, reason string) (*models.Booking, error) {
	booking, err := db.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	lock := db.dateLock(models.DateKey(booking.Date))
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to re-read booking: %w", err)
	}
	if current.Status != models.StatusPending && current.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: cannot reject booking in status %q", domain.ErrInvalidTransition, current.Status)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, cancelled_reason = ?, pending_expires_at = NULL, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		models.StatusCancelled, reason, time.Now(), id, current.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reject booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, domain.ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM slot_cells WHERE booking_id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to release slot cells: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, id)
}

// ExpireBooking cancels a pending booking whose hold timed out before now and
// releases its cells. Returns (nil, nil) when there was nothing to expire, so
// repeated sweeps are no-ops.
func (db *DB) ExpireBooking(ctx context.Context, id int64, now time.Time) (*models.Booking, error) {
	booking, err := db.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, nil
		}
		return nil, err
	}

	lock := db.dateLock(models.DateKey(booking.Date))
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to re-read booking: %w", err)
	}
	if !current.HoldExpired(now) {
		// Approved, already cancelled, or the hold is still live.
		return nil, nil
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, cancelled_reason = ?, pending_expires_at = NULL, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		models.StatusCancelled, models.CancelReasonExpired, now, id, current.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expire booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, domain.ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM slot_cells WHERE booking_id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to release slot cells: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, id)
}

// ApplyPayment records an instalment against an approved booking and, when
// the remaining balance reaches exactly zero, completes it.
func (db *DB) ApplyPayment(ctx context.Context, id, amount int64, method, proofRef string) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to read booking: %w", err)
	}
	if current.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: cannot record payment for booking in status %q", domain.ErrInvalidState, current.Status)
	}
	if amount <= 0 || amount > current.RemainingPayment {
		return nil, fmt.Errorf("%w: amount %d, remaining %d", domain.ErrInvalidAmount, amount, current.RemainingPayment)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payments (booking_id, amount, method, proof_ref, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, amount, method, proofRef, now,
	); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	remaining := current.RemainingPayment - amount
	status := current.Status
	if remaining == 0 {
		status = models.StatusCompleted
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET remaining_payment = ?, status = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		remaining, status, now, id, current.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking balance: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, domain.ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, id)
}

// ExpiredPending lists pending bookings whose hold timed out before now.
func (db *DB) ExpiredPending(ctx context.Context, now time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status = ? AND pending_expires_at IS NOT NULL AND pending_expires_at < ?
	          ORDER BY pending_expires_at ASC`
	return db.queryBookings(ctx, query, models.StatusPending, now)
}

// ExpiredPendingForDate narrows the expiry scan to a single date; used by the
// lazy sweep that runs ahead of availability reads and reservations.
func (db *DB) ExpiredPendingForDate(ctx context.Context, date time.Time, now time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE date = ? AND status = ? AND pending_expires_at IS NOT NULL AND pending_expires_at < ?
	          ORDER BY pending_expires_at ASC`
	return db.queryBookings(ctx, query, models.DateKey(date), models.StatusPending, now)
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE date >= ? AND date <= ? ORDER BY date ASC, created_at ASC`
	return db.queryBookings(ctx, query, models.DateKey(start), models.DateKey(end))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) GetPayments(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, booking_id, amount, COALESCE(method, ''), COALESCE(proof_ref, ''), created_at
		 FROM payments WHERE booking_id = ? ORDER BY created_at ASC`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.ProofRef, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
