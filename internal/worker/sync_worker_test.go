package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/config"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/database"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	mu       sync.Mutex
	upserts  []int64
	statuses map[int64]string
	err      error
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{statuses: make(map[int64]string)}
}

func (f *fakeSheets) UpsertBooking(b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, b.ID)
	return nil
}

func (f *fakeSheets) UpdateBookingStatus(bookingID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.statuses[bookingID] = status
	return nil
}

func newTestWorkerDB(t *testing.T) *database.DB {
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleBooking(id int64) *models.Booking {
	return &models.Booking{
		ID:            id,
		BookingNumber: fmt.Sprintf("CG-20250616-%03d", id),
		CustomerID:    1,
		Date:          time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		SlotHours:     []int{14, 15},
		TotalAmount:   3000,
		Status:        models.StatusPending,
	}
}

func TestEnqueueUpsertPersistsTask(t *testing.T) {
	logger := zerolog.Nop()
	db := newTestWorkerDB(t)
	w := NewSyncWorker(db, newFakeSheets(), nil, Backoff{}, &logger)
	ctx := context.Background()

	require.NoError(t, w.EnqueueUpsert(ctx, sampleBooking(1)))

	tasks, err := db.DueSyncTasks(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.SyncTaskUpsert, tasks[0].TaskType)
	assert.Equal(t, int64(1), tasks[0].BookingID)
	assert.Equal(t, models.SyncStatePending, tasks[0].Status)

	// The same task is also waiting on the in-memory queue.
	queued, ok := w.tryLocalQueue()
	require.True(t, ok)
	assert.Equal(t, tasks[0].ID, queued.ID)
}

func TestEnqueueValidation(t *testing.T) {
	logger := zerolog.Nop()
	w := NewSyncWorker(newTestWorkerDB(t), newFakeSheets(), nil, Backoff{}, &logger)
	ctx := context.Background()

	assert.Error(t, w.EnqueueUpsert(ctx, nil))
	assert.Error(t, w.EnqueueUpsert(ctx, &models.Booking{}))
	assert.Error(t, w.EnqueueStatusUpdate(ctx, 0, "approved"))
	assert.Error(t, w.EnqueueStatusUpdate(ctx, 5, ""))
}

func TestProcessTaskCompletes(t *testing.T) {
	logger := zerolog.Nop()
	db := newTestWorkerDB(t)
	sheets := newFakeSheets()
	w := NewSyncWorker(db, sheets, nil, Backoff{}, &logger)
	ctx := context.Background()

	require.NoError(t, w.EnqueueUpsert(ctx, sampleBooking(3)))
	require.NoError(t, w.EnqueueStatusUpdate(ctx, 3, models.StatusApproved))

	tasks, err := db.DueSyncTasks(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}

	assert.Equal(t, []int64{3}, sheets.upserts)
	assert.Equal(t, models.StatusApproved, sheets.statuses[3])

	remaining, err := db.DueSyncTasks(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestProcessTaskRetriesThenFails(t *testing.T) {
	logger := zerolog.Nop()
	db := newTestWorkerDB(t)
	sheets := newFakeSheets()
	sheets.err = errors.New("sheets unavailable")
	w := NewSyncWorker(db, sheets, nil, Backoff{Attempts: 2, Base: time.Millisecond}, &logger)
	ctx := context.Background()

	require.NoError(t, w.EnqueueUpsert(ctx, sampleBooking(4)))
	tasks, err := db.DueSyncTasks(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// First failure schedules a retry with a future next_retry_at.
	w.processTask(ctx, &tasks[0])

	failed, err := db.FailedSyncTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)

	// Second attempt exhausts the retries.
	tasks[0].RetryCount++
	w.processTask(ctx, &tasks[0])

	failed, err = db.FailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Contains(t, *failed[0].LastError, "sheets unavailable")
}

func TestProcessTaskBadPayloadFailsImmediately(t *testing.T) {
	logger := zerolog.Nop()
	db := newTestWorkerDB(t)
	w := NewSyncWorker(db, newFakeSheets(), nil, Backoff{}, &logger)
	ctx := context.Background()

	task := models.SyncTask{TaskType: models.SyncTaskUpsert, BookingID: 9, Payload: "{not json"}
	require.NoError(t, db.EnqueueSyncTask(ctx, &task))

	w.processTask(ctx, &task)

	failed, err := db.FailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, task.ID, failed[0].ID)
}

func TestEnqueuePushesToRedis(t *testing.T) {
	logger := zerolog.Nop()
	mr := miniredis.RunT(t)
	client := repository.NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	db := newTestWorkerDB(t)
	sheets := newFakeSheets()
	w := NewSyncWorker(db, sheets, client, Backoff{}, &logger)
	ctx := context.Background()

	require.NoError(t, w.EnqueueUpsert(ctx, sampleBooking(7)))

	// With redis available the task skips the local queue.
	_, ok := w.tryLocalQueue()
	assert.False(t, ok)

	task, ok := w.tryRedis(ctx)
	require.True(t, ok)
	assert.Equal(t, models.SyncTaskUpsert, task.TaskType)
	assert.Equal(t, int64(7), task.BookingID)

	w.processTask(ctx, &task)
	assert.Equal(t, []int64{7}, sheets.upserts)
}
