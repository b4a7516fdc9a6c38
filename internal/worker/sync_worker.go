package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/database"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SheetsClient applies mirror operations to the bookings sheet.
type SheetsClient interface {
	UpsertBooking(*models.Booking) error
	UpdateBookingStatus(int64, string) error
}

// SyncWorker consumes sync_queue tasks and mirrors them to the bookings
// sheet. Tasks survive restarts in sqlite; Redis (when available) only
// shortens the pickup latency.
type SyncWorker struct {
	db            *database.DB
	sheets        SheetsClient
	redis         *redis.Client
	backoff       Backoff
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewSyncWorker(db *database.DB, sheets SheetsClient, redisClient *redis.Client, backoff Backoff, logger *zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		db:            db,
		sheets:        sheets,
		redis:         redisClient,
		backoff:       backoff.withDefaults(),
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "sheets:queue",
		deadLetterKey: "sheets:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueUpsert schedules a full-row mirror of the booking.
func (w *SyncWorker) EnqueueUpsert(ctx context.Context, booking *models.Booking) error {
	task, err := models.NewBookingUpsertTask(booking)
	if err != nil {
		return err
	}
	return w.enqueue(ctx, task)
}

// EnqueueStatusUpdate schedules a status-only mirror update.
func (w *SyncWorker) EnqueueStatusUpdate(ctx context.Context, bookingID int64, status string) error {
	task, err := models.NewStatusUpdateTask(bookingID, status)
	if err != nil {
		return err
	}
	return w.enqueue(ctx, task)
}

func (w *SyncWorker) enqueue(ctx context.Context, task *models.SyncTask) error {
	if err := w.db.EnqueueSyncTask(ctx, task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first for cross-process pickup.
	if w.redis != nil {
		if err := w.pushRedis(ctx, *task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed.
	select {
	case w.queue <- *task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sync worker started")
	defer w.logger.Info().Msg("sync worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.DueSyncTasks(ctx, time.Now(), w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch due sync tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SyncWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *SyncWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SyncWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SyncWorker) processTask(ctx context.Context, task *models.SyncTask) {
	payload, err := task.SheetPayload()
	if err != nil {
		// Undecodable payloads never become decodable; park immediately.
		w.failTask(ctx, task, err)
		return
	}

	if err := w.mirror(task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.MarkSyncTaskCompleted(ctx, task.ID, time.Now()); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task completed")
	}
}

func (w *SyncWorker) mirror(taskType string, payload models.SheetSyncPayload) error {
	switch taskType {
	case models.SyncTaskUpsert:
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(payload.Booking)
	case models.SyncTaskStatusUpdate:
		if payload.BookingID == 0 || payload.Status == "" {
			return errors.New("booking id or status missing")
		}
		return w.sheets.UpdateBookingStatus(payload.BookingID, payload.Status)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *SyncWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if w.backoff.Exhausted(attempt) {
		w.failTask(ctx, task, cause)
		return
	}

	nextAt := time.Now().Add(w.backoff.Next(attempt))
	if err := w.db.ScheduleSyncTaskRetry(ctx, task.ID, cause.Error(), nextAt); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("schedule sync task retry")
	}
}

func (w *SyncWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.db.MarkSyncTaskFailed(ctx, task.ID, cause.Error(), time.Now()); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *SyncWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SyncWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push failed")
	}
}
