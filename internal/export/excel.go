package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// BookingSource provides the bookings included in a report.
type BookingSource interface {
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// Exporter renders booking reports as Excel files for the ground office.
type Exporter struct {
	source BookingSource
	path   string
	logger *zerolog.Logger
}

func NewExporter(source BookingSource, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		source: source,
		path:   path,
		logger: logger,
	}
}

// BookingsReport writes all bookings between startDate and endDate to an
// xlsx file and returns its path.
func (e *Exporter) BookingsReport(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	bookings, err := e.source.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.MergeCell(sheetName, "A1", "K1")
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{
		"ID", "Booking #", "Customer", "Date", "Hours",
		"Total", "Advance", "Remaining", "Status", "Created", "Updated",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		row := i + 3
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), booking.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), booking.BookingNumber)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), booking.CustomerID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), models.DateKey(booking.Date))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), hourRangeLabel(booking.SlotHours))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), booking.TotalAmount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), booking.AdvancePayment)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), booking.RemainingPayment)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), booking.Status)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), booking.CreatedAt.Format("02.01.2006 15:04"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), booking.UpdatedAt.Format("02.01.2006 15:04"))

		if styleID, err := statusStyle(f, booking.Status); err == nil {
			cellStart := fmt.Sprintf("A%d", row)
			cellEnd := fmt.Sprintf("K%d", row)
			_ = f.SetCellStyle(sheetName, cellStart, cellEnd, styleID)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "B", 20)
	_ = f.SetColWidth(sheetName, "C", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "E", 18)
	_ = f.SetColWidth(sheetName, "F", "H", 12)
	_ = f.SetColWidth(sheetName, "I", "K", 18)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel report created")
	return filePath, nil
}

func statusStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.StatusApproved, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusCancelled:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
}

// hourRangeLabel compresses sorted hours into ranges, e.g. 14-16, 20.
func hourRangeLabel(hours []int) string {
	if len(hours) == 0 {
		return ""
	}

	label := ""
	start := hours[0]
	prev := hours[0]
	flush := func(end int) {
		if label != "" {
			label += ", "
		}
		if start == end {
			label += fmt.Sprintf("%02d:00", start)
		} else {
			label += fmt.Sprintf("%02d:00-%02d:00", start, end+1)
		}
	}
	for _, h := range hours[1:] {
		if h == prev+1 {
			prev = h
			continue
		}
		flush(prev)
		start = h
		prev = h
	}
	flush(prev)
	return label
}
