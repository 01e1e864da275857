package worker

import (
	"context"
	"fmt"
	"time"

	"shoecare/internal/domain"
	"shoecare/internal/events"
	"shoecare/internal/mail"
	"shoecare/internal/metrics"
	"shoecare/internal/models"

	"github.com/rs/zerolog"
)

const defaultQueueSize = 128

// MailTask is one message waiting for delivery.
type MailTask struct {
	Email     models.Email
	BookingID int64
	Attempt   int
	CreatedAt time.Time
}

// MailWorker delivers booking notifications in the background. Delivery failures
// are retried with RetryPolicy and then dropped; they never reach the booking flow.
type MailWorker struct {
	sender      domain.Mailer
	brand       string
	retryPolicy RetryPolicy
	queue       chan MailTask
	logger      *zerolog.Logger
	sleep       func(ctx context.Context, d time.Duration) bool
}

// NewMailWorker builds a worker with sane defaults.
func NewMailWorker(sender domain.Mailer, brand string, queueSize int, retry RetryPolicy, logger *zerolog.Logger) *MailWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &MailWorker{
		sender:      sender,
		brand:       brand,
		retryPolicy: retry.withDefaults(),
		queue:       make(chan MailTask, queueSize),
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Subscribe wires the worker to booking events on bus.
func (w *MailWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, w.HandleBookingCreated)
	bus.Subscribe(events.EventBookingUpdated, w.HandleBookingUpdated)
	bus.Subscribe(events.EventBookingDeleted, w.HandleBookingDeleted)
}

// HandleBookingCreated queues the booking receipt.
func (w *MailWorker) HandleBookingCreated(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return w.Enqueue(MailTask{Email: mail.BookingReceipt(w.brand, p), BookingID: p.BookingID})
}

// HandleBookingUpdated queues a status notice when the status actually changed.
func (w *MailWorker) HandleBookingUpdated(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	if !p.StatusChanged() {
		return nil
	}
	return w.Enqueue(MailTask{Email: mail.StatusNotice(w.brand, p), BookingID: p.BookingID})
}

// HandleBookingDeleted queues the removal notice.
func (w *MailWorker) HandleBookingDeleted(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return w.Enqueue(MailTask{Email: mail.DeletionNotice(w.brand, p), BookingID: p.BookingID})
}

// Enqueue schedules a task without blocking. A full queue drops the task.
func (w *MailWorker) Enqueue(task MailTask) error {
	if task.Email.To == "" {
		return mail.ErrNoRecipient
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	select {
	case w.queue <- task:
		return nil
	default:
		metrics.IncMail("dropped")
		return fmt.Errorf("mail queue full, booking %d notification dropped", task.BookingID)
	}
}

// Start launches main loop; stops when ctx is done.
func (w *MailWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("mail worker started")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case task := <-w.queue:
			w.processTask(ctx, &task)
		}
	}
}

// drain empties the queue on shutdown. Queued messages are not persisted.
func (w *MailWorker) drain() {
	pending := 0
	for {
		if _, ok := w.tryLocalQueue(); !ok {
			break
		}
		pending++
	}
	if pending > 0 {
		metrics.IncMailBy("dropped", pending)
	}
	w.logger.Info().Int("undelivered", pending).Msg("mail worker stopped")
}

func (w *MailWorker) tryLocalQueue() (MailTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return MailTask{}, false
	}
}

// processTask sends task, retrying until it succeeds, the policy gives up or ctx ends.
func (w *MailWorker) processTask(ctx context.Context, task *MailTask) bool {
	for {
		task.Attempt++
		err := w.sender.Send(ctx, task.Email)
		if err == nil {
			metrics.IncMail("sent")
			w.logger.Debug().Int64("booking_id", task.BookingID).Str("subject", task.Email.Subject).Msg("mail sent")
			return true
		}

		if w.retryPolicy.Exhausted(task.Attempt) {
			metrics.IncMail("failed")
			w.logger.Error().Err(err).
				Int64("booking_id", task.BookingID).
				Int("attempts", task.Attempt).
				Msg("mail delivery failed, giving up")
			return false
		}

		delay := w.retryPolicy.NextDelay(task.Attempt)
		metrics.IncMail("retry")
		w.logger.Warn().Err(err).
			Int64("booking_id", task.BookingID).
			Int("attempt", task.Attempt).
			Dur("retry_in", delay).
			Msg("mail delivery failed, retrying")

		if !w.sleep(ctx, delay) {
			return false
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
