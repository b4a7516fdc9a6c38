package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrRowNotFound is returned when a booking has no row in the sheet yet.
var ErrRowNotFound = errors.New("booking row not found")

const (
	bookingsRange = "Bookings!A:A"
	requestWindow = 30 * time.Second
)

// Mirror keeps a bookings spreadsheet in step with the sqlite store. It is
// fed exclusively by the sync worker; the sheet is a read-only view for the
// ground staff, never a source of truth.
type Mirror struct {
	service       *sheets.Service
	spreadsheetID string

	cacheMu  sync.RWMutex
	rowCache map[int64]int
}

// NewMirror builds a Sheets client from a service-account credentials file.
func NewMirror(credentialsFile, spreadsheetID string) (*Mirror, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &Mirror{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[int64]int),
	}, nil
}

// TestConnection verifies the spreadsheet is reachable and shared with the
// service account.
func (m *Mirror) TestConnection(ctx context.Context) error {
	if _, err := m.service.Spreadsheets.Values.Get(m.spreadsheetID, "Bookings!A1").Context(ctx).Do(); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// UpsertBooking updates an existing booking row or appends a new one.
func (m *Mirror) UpsertBooking(booking *models.Booking) error {
	if booking == nil {
		return errors.New("booking is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestWindow)
	defer cancel()

	rowIdx, err := m.findBookingRow(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return m.appendBooking(ctx, booking)
		}
		return err
	}

	rangeData := fmt.Sprintf("Bookings!A%d:K%d", rowIdx, rowIdx)
	_, err = m.service.Spreadsheets.Values.Update(m.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// UpdateBookingStatus rewrites the status and updated-at columns of a row.
func (m *Mirror) UpdateBookingStatus(bookingID int64, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestWindow)
	defer cancel()

	rowIdx, err := m.findBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}

	statusRange := fmt.Sprintf("Bookings!I%d:I%d", rowIdx, rowIdx)
	_, err = m.service.Spreadsheets.Values.Update(m.spreadsheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := fmt.Sprintf("Bookings!K%d:K%d", rowIdx, rowIdx)
	_, err = m.service.Spreadsheets.Values.Update(m.spreadsheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{time.Now().Format("2006-01-02 15:04:05")}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (m *Mirror) appendBooking(ctx context.Context, booking *models.Booking) error {
	_, err := m.service.Spreadsheets.Values.Append(m.spreadsheetID, bookingsRange, &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

// findBookingRow locates the 1-based row index for a booking ID in column A,
// consulting the cache first.
func (m *Mirror) findBookingRow(ctx context.Context, bookingID int64) (int, error) {
	if bookingID == 0 {
		return 0, errors.New("booking id is required")
	}

	if row, ok := m.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := m.service.Spreadsheets.Values.Get(m.spreadsheetID, bookingsRange).Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var id int64
		switch v := row[0].(type) {
		case float64:
			id = int64(v)
		case string:
			fmt.Sscanf(v, "%d", &id)
		}
		if id == bookingID {
			rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
			m.setCachedRow(bookingID, rowIdx)
			return rowIdx, nil
		}
	}

	return 0, ErrRowNotFound
}

func (m *Mirror) getCachedRow(id int64) (int, bool) {
	m.cacheMu.RLock()
	defer m.cacheMu.RUnlock()
	row, ok := m.rowCache[id]
	return row, ok
}

func (m *Mirror) setCachedRow(id int64, row int) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	m.rowCache[id] = row
}

func bookingRowValues(booking *models.Booking) []interface{} {
	return []interface{}{
		booking.ID,
		booking.BookingNumber,
		booking.CustomerID,
		models.DateKey(booking.Date),
		formatHours(booking.SlotHours),
		booking.TotalAmount,
		booking.AdvancePayment,
		booking.RemainingPayment,
		booking.Status,
		booking.CreatedAt.Format("2006-01-02 15:04:05"),
		booking.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func formatHours(hours []int) string {
	parts := make([]string, 0, len(hours))
	for _, h := range hours {
		parts = append(parts, fmt.Sprintf("%02d:00", h))
	}
	return strings.Join(parts, ", ")
}
