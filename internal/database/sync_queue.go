package database

import (
	"context"
	"fmt"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
)

const syncTaskColumns = `id, task_type, booking_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at`

// EnqueueSyncTask persists a mirror task. The sqlite row is the durable copy;
// whatever queue delivers the task faster (Redis, an in-memory channel) only
// shortens pickup latency and may be lost freely.
func (db *DB) EnqueueSyncTask(ctx context.Context, task *models.SyncTask) error {
	if task.Status == "" {
		task.Status = models.SyncStatePending
	}
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO sync_queue (task_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskType, task.BookingID, task.Payload, task.Status,
		task.RetryCount, task.LastError, now, task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// DueSyncTasks returns pending tasks plus retries whose backoff has elapsed
// at now, oldest first.
func (db *DB) DueSyncTasks(ctx context.Context, now time.Time, limit int) ([]models.SyncTask, error) {
	query := `SELECT ` + syncTaskColumns + ` FROM sync_queue
	          WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
	          ORDER BY created_at ASC LIMIT ?`
	return db.querySyncTasks(ctx, query, models.SyncStatePending, models.SyncStateRetry, now, limit)
}

// FailedSyncTasks lists tasks that exhausted their retries, newest first.
func (db *DB) FailedSyncTasks(ctx context.Context) ([]models.SyncTask, error) {
	query := `SELECT ` + syncTaskColumns + ` FROM sync_queue WHERE status = ? ORDER BY created_at DESC`
	return db.querySyncTasks(ctx, query, models.SyncStateFailed)
}

// MarkSyncTaskCompleted stamps the task as mirrored.
func (db *DB) MarkSyncTaskCompleted(ctx context.Context, id int64, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = ?, last_error = '', next_retry_at = NULL, processed_at = ? WHERE id = ?`,
		models.SyncStateCompleted, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark sync task completed: %w", err)
	}
	return nil
}

// ScheduleSyncTaskRetry records the failure cause, bumps the attempt counter
// and hides the task from the due scan until nextAt.
func (db *DB) ScheduleSyncTaskRetry(ctx context.Context, id int64, cause string, nextAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`,
		models.SyncStateRetry, cause, nextAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sync task retry: %w", err)
	}
	return nil
}

// MarkSyncTaskFailed parks the task permanently with its final error.
func (db *DB) MarkSyncTaskFailed(ctx context.Context, id int64, cause string, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = NULL, processed_at = ? WHERE id = ?`,
		models.SyncStateFailed, cause, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark sync task failed: %w", err)
	}
	return nil
}

func (db *DB) querySyncTasks(ctx context.Context, query string, args ...interface{}) ([]models.SyncTask, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		if err := rows.Scan(
			&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status,
			&t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
