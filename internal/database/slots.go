package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
)

// CreateBookingHold is the atomic reserve operation: either every requested
// hour flips Available→Pending and the booking row is created, or nothing
// changes and the caller learns exactly which hours were taken. The per-date
// mutex plus the transaction make the check-then-set indivisible relative to
// any other reservation, sweep or lifecycle change touching the same date.
func (db *DB) CreateBookingHold(ctx context.Context, booking *models.Booking) error {
	if len(booking.SlotHours) == 0 {
		return fmt.Errorf("%w: booking has no slot hours", domain.ErrInvalidRequest)
	}
	dateKey := models.DateKey(booking.Date)

	lock := db.dateLock(dateKey)
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Conflict check inside the critical section.
	args := make([]interface{}, 0, len(booking.SlotHours)+1)
	args = append(args, dateKey)
	for _, h := range booking.SlotHours {
		args = append(args, h)
	}
	queryConflicts := `SELECT hour FROM slot_cells WHERE date = ? AND hour IN (` + inPlaceholders(len(booking.SlotHours)) + `)`
	rows, err := tx.QueryContext(ctx, queryConflicts, args...)
	if err != nil {
		return fmt.Errorf("failed to check slot conflicts: %w", err)
	}
	var conflicts []int
	for rows.Next() {
		var h int
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan conflicting hour: %w", err)
		}
		conflicts = append(conflicts, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read slot conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		return domain.NewSlotConflictError(dateKey, conflicts)
	}

	// 2. Date-sequenced booking number; safe under the date lock.
	var seq int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE date = ?`, dateKey).Scan(&seq); err != nil {
		return fmt.Errorf("failed to sequence booking number: %w", err)
	}
	booking.BookingNumber = fmt.Sprintf("CG-%s-%03d", booking.Date.Format("20060102"), seq+1)

	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = booking.CreatedAt
	booking.Status = models.StatusPending
	booking.Version = 1

	hoursJSON, err := json.Marshal(booking.SlotHours)
	if err != nil {
		return fmt.Errorf("failed to encode slot hours: %w", err)
	}

	// 3. Booking row.
	queryInsert := `INSERT INTO bookings (
				reference, booking_number, customer_id, date, slot_hours,
				total_amount, advance_payment, remaining_payment, status,
				payment_method, payment_proof_ref, pending_expires_at,
				cancelled_reason, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.Reference,
		booking.BookingNumber,
		booking.CustomerID,
		dateKey,
		string(hoursJSON),
		booking.TotalAmount,
		booking.AdvancePayment,
		booking.RemainingPayment,
		booking.Status,
		booking.PaymentMethod,
		booking.PaymentProofRef,
		booking.PendingExpiresAt,
		"",
		booking.CreatedAt,
		booking.UpdatedAt,
		booking.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id

	// 4. Rate snapshot and cell holds.
	for _, slot := range booking.Slots {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO booking_slots (booking_id, hour, rate, is_night) VALUES (?, ?, ?, ?)`,
			id, slot.Hour, slot.Rate, slot.IsNight,
		); err != nil {
			return fmt.Errorf("failed to insert booking slot: %w", err)
		}
	}
	for _, h := range booking.SlotHours {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO slot_cells (date, hour, status, booking_id) VALUES (?, ?, ?, ?)`,
			dateKey, h, models.SlotPending, id,
		); err != nil {
			return fmt.Errorf("failed to insert slot cell: %w", err)
		}
	}

	return tx.Commit()
}

// SlotCells returns the materialized cells for a date, ordered by hour.
// Absent hours are available.
func (db *DB) SlotCells(ctx context.Context, date time.Time) ([]models.SlotCell, error) {
	dateKey := models.DateKey(date)
	rows, err := db.QueryContext(ctx,
		`SELECT hour, status, booking_id FROM slot_cells WHERE date = ? ORDER BY hour ASC`, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot cells: %w", err)
	}
	defer rows.Close()

	day, err := models.ParseDateKey(dateKey)
	if err != nil {
		return nil, err
	}

	var cells []models.SlotCell
	for rows.Next() {
		cell := models.SlotCell{Date: day}
		if err := rows.Scan(&cell.Hour, &cell.Status, &cell.BookingID); err != nil {
			return nil, fmt.Errorf("failed to scan slot cell: %w", err)
		}
		cells = append(cells, cell)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Hour < cells[j].Hour })
	return cells, nil
}
