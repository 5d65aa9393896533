package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/queue"
)

// JobQueue is the queue surface the worker consumes. *queue.Queue satisfies it.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// RecipientLookup resolves a user's email when a payload carries only the ID.
type RecipientLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// LogStore records delivery outcomes.
type LogStore interface {
	Record(ctx context.Context, l *models.NotificationLog) error
}

// Worker delivers queued notifications.
type Worker struct {
	queue   JobQueue
	users   RecipientLookup
	logs    LogStore
	sender  Sender
	logger  *zap.Logger
	poll    time.Duration
	backoff time.Duration
	now     func() time.Time
}

// NewWorker creates a notification worker.
func NewWorker(q JobQueue, users RecipientLookup, logs LogStore, sender Sender, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:   q,
		users:   users,
		logs:    logs,
		sender:  sender,
		logger:  logger,
		poll:    5 * time.Second,
		backoff: queue.RetryBackoff,
		now:     time.Now,
	}
}

// Process delivers one job and records the outcome.
func (w *Worker) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	to := payload.RecipientEmail
	if to == "" {
		u, err := w.users.GetByID(ctx, payload.UserID)
		if err != nil {
			return fmt.Errorf("resolve recipient %s: %w", payload.UserID, err)
		}
		to = u.Email
	}

	entry := &models.NotificationLog{
		JobID:          job.ID,
		Kind:           payload.Kind,
		RecipientEmail: to,
		Subject:        payload.Subject,
	}
	sendErr := w.sender.Send(ctx, Message{To: to, Subject: payload.Subject, Body: payload.Body})
	if sendErr != nil {
		entry.Status = models.NotificationStatusFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		sentAt := w.now()
		entry.Status = models.NotificationStatusSent
		entry.SentAt = &sentAt
	}
	if err := w.logs.Record(ctx, entry); err != nil {
		w.logger.Warn("record notification failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	if sendErr != nil {
		return fmt.Errorf("send: %w", sendErr)
	}
	w.logger.Info("notification delivered", zap.String("job_id", job.ID), zap.String("kind", payload.Kind))
	return nil
}

// Run dequeues and processes jobs until ctx is cancelled. Failed jobs are
// retried and dead-lettered by the queue after the retry limit.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Warn("dequeue error", zap.Error(err))
			w.sleep(ctx, w.backoff)
			continue
		}
		if job == nil {
			continue
		}

		w.logger.Debug("processing job", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		if err := w.Process(ctx, job); err != nil {
			w.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := w.queue.Retry(ctx, job); reErr != nil {
				w.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			w.sleep(ctx, w.backoff)
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
