// Package dispatch runs the background send loop of started mailings.
//
// Each mailing is sent by at most one goroutine per process. The task repeats
// delivery cycles until the mailing ends, is finished elsewhere, reaches the
// cycle limit or is cancelled. Attempts are unique per mailing, recipient and
// cycle, so a task resumed after a restart continues its current cycle.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	uuid "github.com/gofrs/uuid"
	attemptModels "github.com/qolzam/mailer/attempts/models"
	"github.com/qolzam/mailer/internal/metrics"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/platform/email"
	mailingErrors "github.com/qolzam/mailer/mailings/errors"
	"github.com/qolzam/mailer/mailings/models"
	"github.com/qolzam/mailer/mailings/repository"
)

// AttemptStore is the part of the attempt log the loop writes to.
type AttemptStore interface {
	Record(ctx context.Context, attempt *attemptModels.Attempt) (bool, error)
	AttemptedRecipients(ctx context.Context, mailingID uuid.UUID, cycle int) (map[uuid.UUID]bool, error)
}

// Invalidator drops cached views of an owner's records.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

// Config controls the cadence and concurrency of sends.
type Config struct {
	Interval      time.Duration
	MaxCycles     int // 0 means no limit
	MaxConcurrent int
	From          string
	FromName      string
	Invalidators  []Invalidator
	Now           func() time.Time
}

// Outcome is the result of one delivery.
type Outcome struct {
	RecipientID uuid.UUID
	Email       string
	Status      string
	Response    string
}

// Dispatcher owns the running send tasks.
type Dispatcher struct {
	mailings repository.StatusStore
	attempts AttemptStore
	sender   email.Sender
	cfg      Config

	semaphore chan struct{}
	wg        sync.WaitGroup

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
	closed  bool
}

// New creates a dispatcher. Zero config values fall back to a 30s interval and 4 concurrent sends.
func New(mailings repository.StatusStore, attempts AttemptStore, sender email.Sender, cfg Config) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{
		mailings:  mailings,
		attempts:  attempts,
		sender:    sender,
		cfg:       cfg,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		running:   make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start launches the send task for id. It is a no-op when the task is already running.
// The task outlives ctx but keeps its values.
func (d *Dispatcher) Start(ctx context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return mailingErrors.ErrDispatcherClosed
	}
	if _, ok := d.running[id]; ok {
		return nil
	}

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.running[id] = cancel
	d.wg.Add(1)
	go d.run(taskCtx, id)
	return nil
}

// Cancel stops the task for id and reports whether one was running.
// The mailing status is left to the caller.
func (d *Dispatcher) Cancel(id uuid.UUID) bool {
	d.mu.Lock()
	cancel, ok := d.running[id]
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Running reports whether a task for id is active.
func (d *Dispatcher) Running(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.running[id]
	return ok
}

// Shutdown cancels every task and waits for them to return. Statuses stay as they
// are so the tasks can be resumed by the next process.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	for _, cancel := range d.running {
		cancel()
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, id uuid.UUID) {
	defer d.wg.Done()
	defer d.release(id)

	select {
	case d.semaphore <- struct{}{}:
		defer func() { <-d.semaphore }()
	case <-ctx.Done():
		return
	}

	metrics.RunningSends.Inc()
	defer metrics.RunningSends.Dec()

	if err := d.loop(ctx, id); err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorWithContext(ctx, "[Dispatch] mailing %s stopped: %v", id, err)
	}
}

func (d *Dispatcher) release(id uuid.UUID) {
	d.mu.Lock()
	cancel := d.running[id]
	delete(d.running, id)
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (d *Dispatcher) loop(ctx context.Context, id uuid.UUID) error {
	delivery, err := d.mailings.FindDelivery(ctx, id)
	if err != nil {
		return err
	}

	// A resumed task continues the cycle recorded before the restart.
	cycle := delivery.Mailing.LastCycle
	for {
		if delivery.Mailing.Status == models.StatusFinished {
			return nil
		}
		if !d.cfg.Now().Before(delivery.Mailing.EndedAt) {
			return d.finish(ctx, delivery.Mailing)
		}

		if cycle == 0 {
			cycle, err = d.mailings.AdvanceCycle(ctx, id)
			if errors.Is(err, mailingErrors.ErrMailingFinished) {
				return nil
			}
			if err != nil {
				return err
			}
		}

		outcomes, sendErr := d.sendCycle(ctx, delivery, cycle)
		if sendErr != nil {
			return sendErr
		}
		// a resumed cycle whose recipients were all attempted before the restart
		if len(outcomes) > 0 {
			metrics.IncrementCycles()
			d.invalidate(ctx, delivery.Mailing.OwnerID)
			log.InfoWithContext(ctx, "[Dispatch] mailing %s completed cycle %d", id, cycle)
		}

		if d.cfg.MaxCycles > 0 && cycle >= d.cfg.MaxCycles {
			return d.finish(ctx, delivery.Mailing)
		}

		timer := time.NewTimer(d.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if delivery, err = d.mailings.FindDelivery(ctx, id); err != nil {
			return err
		}
		cycle = 0
	}
}

// SendOnce delivers one cycle to every recipient, then finishes the mailing.
func (d *Dispatcher) SendOnce(ctx context.Context, id uuid.UUID) ([]Outcome, error) {
	delivery, err := d.mailings.FindDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery.Mailing.Status == models.StatusFinished {
		return nil, mailingErrors.ErrMailingFinished
	}

	started, err := d.mailings.MarkStarted(ctx, id)
	if err != nil {
		return nil, err
	}
	if !started {
		return nil, mailingErrors.ErrMailingFinished
	}
	if delivery.Mailing.Status == models.StatusCreated {
		metrics.RecordTransition(string(models.StatusStarted))
	}

	cycle, err := d.mailings.AdvanceCycle(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := d.sendCycle(ctx, delivery, cycle)
	if err != nil {
		return outcomes, err
	}
	metrics.IncrementCycles()
	return outcomes, d.finish(ctx, delivery.Mailing)
}

func (d *Dispatcher) sendCycle(ctx context.Context, delivery *models.Delivery, cycle int) ([]Outcome, error) {
	mailingID := delivery.Mailing.ObjectId
	attempted, err := d.attempts.AttemptedRecipients(ctx, mailingID, cycle)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(delivery.Recipients))
	for _, rcp := range delivery.Recipients {
		if attempted[rcp.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		outcome, sendErr := d.deliver(ctx, delivery, rcp)
		if ctx.Err() != nil && isContextErr(sendErr) {
			// never handed to the relay: leave the recipient for the resumed task
			return outcomes, ctx.Err()
		}

		attempt := &attemptModels.Attempt{
			MailingID:      mailingID,
			OwnerID:        delivery.Mailing.OwnerID,
			RecipientID:    uuid.NullUUID{UUID: rcp.ID, Valid: true},
			RecipientEmail: rcp.Email,
			Cycle:          cycle,
			Status:         outcome.Status,
			ServerResponse: outcome.Response,
			AttemptedAt:    d.cfg.Now().UTC(),
		}
		// The relay may have accepted the message even if ctx was cancelled meanwhile.
		if _, err := d.attempts.Record(context.WithoutCancel(ctx), attempt); err != nil {
			log.ErrorWithContext(ctx, "[Dispatch] record attempt for %s in mailing %s: %v", rcp.Email, mailingID, err)
		}
		outcomes = append(outcomes, outcome)

		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (d *Dispatcher) deliver(ctx context.Context, delivery *models.Delivery, rcp models.DeliveryRecipient) (Outcome, error) {
	start := time.Now()
	err := d.sender.Send(ctx, email.Message{
		From:     d.cfg.From,
		FromName: d.cfg.FromName,
		To:       []string{rcp.Email},
		Subject:  delivery.Subject,
		Body:     delivery.Body,
	})
	status, response := Classify(err)
	metrics.RecordSendAttempt(status, time.Since(start))

	if err != nil {
		log.WarnWithContext(ctx, "[Dispatch] delivery to %s failed: %v", rcp.Email, err)
	}
	return Outcome{RecipientID: rcp.ID, Email: rcp.Email, Status: status, Response: response}, err
}

// Classify maps a send error to the attempt status and server response text.
func Classify(err error) (string, string) {
	switch {
	case err == nil:
		return attemptModels.StatusSuccess, attemptModels.ResponseSent
	case errors.Is(err, email.ErrRecipientRefused):
		return attemptModels.StatusFailure, attemptModels.ResponseRecipientMissing
	default:
		return attemptModels.StatusFailure, attemptModels.SendErrorResponse(err)
	}
}

func (d *Dispatcher) finish(ctx context.Context, mailing models.Mailing) error {
	changed, err := d.mailings.MarkFinished(ctx, mailing.ObjectId)
	if err != nil {
		return err
	}
	if changed {
		metrics.RecordTransition(string(models.StatusFinished))
		log.InfoWithContext(ctx, "[Dispatch] mailing %s finished", mailing.ObjectId)
	}
	d.invalidate(ctx, mailing.OwnerID)
	return nil
}

func (d *Dispatcher) invalidate(ctx context.Context, ownerID uuid.UUID) {
	for _, inv := range d.cfg.Invalidators {
		if err := inv.Invalidate(ctx, ownerID); err != nil {
			log.WarnWithContext(ctx, "[Dispatch] cache invalidation for owner %s failed: %v", ownerID, err)
		}
	}
}
