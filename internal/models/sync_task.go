package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Mirror task types for the bookings sheet.
const (
	SyncTaskUpsert       = "upsert"
	SyncTaskStatusUpdate = "update_status"
)

// Queue states of a sync task.
const (
	SyncStatePending   = "pending"
	SyncStateRetry     = "retry"
	SyncStateCompleted = "completed"
	SyncStateFailed    = "failed"
)

// SheetSyncPayload is the booking snapshot a sync task carries. Upserts embed
// the full booking; status updates carry only the id and the new status.
type SheetSyncPayload struct {
	BookingID int64    `json:"booking_id"`
	Booking   *Booking `json:"booking,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// SyncTask is one queued mirror job for the bookings sheet.
type SyncTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	BookingID   int64      `json:"booking_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

// NewBookingUpsertTask builds a full-row mirror task for the booking.
func NewBookingUpsertTask(booking *Booking) (*SyncTask, error) {
	if booking == nil || booking.ID == 0 {
		return nil, errors.New("booking id is required")
	}
	return newSyncTask(SyncTaskUpsert, SheetSyncPayload{BookingID: booking.ID, Booking: booking})
}

// NewStatusUpdateTask builds a status-only mirror task.
func NewStatusUpdateTask(bookingID int64, status string) (*SyncTask, error) {
	if bookingID == 0 || status == "" {
		return nil, errors.New("booking id and status are required")
	}
	return newSyncTask(SyncTaskStatusUpdate, SheetSyncPayload{BookingID: bookingID, Status: status})
}

func newSyncTask(taskType string, payload SheetSyncPayload) (*SyncTask, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode sync payload: %w", err)
	}
	return &SyncTask{
		TaskType:  taskType,
		BookingID: payload.BookingID,
		Payload:   string(raw),
		Status:    SyncStatePending,
	}, nil
}

// SheetPayload decodes the booking snapshot the task carries.
func (t *SyncTask) SheetPayload() (SheetSyncPayload, error) {
	var payload SheetSyncPayload
	if err := json.Unmarshal([]byte(t.Payload), &payload); err != nil {
		return SheetSyncPayload{}, fmt.Errorf("decode sync payload: %w", err)
	}
	return payload, nil
}
