// Package scheduler moves mailings through their lifecycle on a cron cadence.
//
// The jobs are idempotent: every status change goes through the guarded
// repository transitions, and starting a mailing that already has a task is a no-op.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/metrics"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/types"
	mailingErrors "github.com/qolzam/mailer/mailings/errors"
	"github.com/qolzam/mailer/mailings/models"
	cronv3 "github.com/robfig/cron/v3"
)

// Job names, also used as keys of the registered entries
const (
	JobStartDue       = "start_due"
	JobFinishExpired  = "finish_expired"
	JobResumeStarted  = "resume_started"
	defaultJobTimeout = time.Minute
)

// Store is the part of the mailing repository the jobs use.
type Store interface {
	FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Mailing, error)
	MarkStarted(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFinished(ctx context.Context, id uuid.UUID) (bool, error)
	ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ListStarted(ctx context.Context) ([]uuid.UUID, error)
}

// Dispatcher runs the send tasks.
type Dispatcher interface {
	Start(ctx context.Context, id uuid.UUID) error
	Cancel(id uuid.UUID) bool
	Running(id uuid.UUID) bool
}

// Invalidator drops cached views of an owner's records.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

type Scheduler struct {
	cfg          Config
	store        Store
	dispatcher   Dispatcher
	invalidators []Invalidator
	now          func() time.Time

	// one job at a time; they touch the same rows
	jobLock sync.Mutex

	cron   *cronv3.Cron
	jobIDs map[string]cronv3.EntryID
}

func New(cfg Config, store Store, dispatcher Dispatcher, invalidators ...Invalidator) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		store:        store,
		dispatcher:   dispatcher,
		invalidators: invalidators,
		now:          time.Now,
		jobIDs:       make(map[string]cronv3.EntryID),
	}
}

// cronLogger forwards robfig/cron messages to the service log.
type cronLogger struct{}

func (cronLogger) Printf(format string, v ...interface{}) {
	log.Info("[Scheduler] "+format, v...)
}

// Start registers the jobs and starts the cron runner. It fails on an invalid schedule.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		log.Info("[Scheduler] disabled")
		return nil
	}

	logger := cronv3.PrintfLogger(cronLogger{})
	c := cronv3.New(
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(logger),
			cronv3.Recover(logger),
		),
	)

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) (int, error)
	}{
		{JobStartDue, s.cfg.CronScheduleStartDue, s.StartDue},
		{JobFinishExpired, s.cfg.CronScheduleFinishExpired, s.FinishExpired},
		{JobResumeStarted, s.cfg.CronScheduleResumeStarted, s.ResumeStarted},
	}
	for _, job := range jobs {
		if job.schedule == "" {
			continue
		}
		id, err := c.AddFunc(job.schedule, s.wrap(job.name, job.run))
		if err != nil {
			return fmt.Errorf("add %s job: %w", job.name, err)
		}
		s.jobIDs[job.name] = id
		log.Info("[Scheduler] registered %s job with schedule: %s", job.name, job.schedule)
	}

	c.Start()
	s.cron = c
	return nil
}

// Stop stops the runner and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce runs every job once, in lifecycle order.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	for _, run := range []func(context.Context) (int, error){s.FinishExpired, s.StartDue, s.ResumeStarted} {
		if _, err := run(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) wrap(name string, run func(context.Context) (int, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
		defer cancel()
		n, err := run(ctx)
		if err != nil {
			log.Error("[Scheduler] %s failed: %v", name, err)
			return
		}
		if n > 0 {
			log.Info("[Scheduler] %s handled %d mailings", name, n)
		}
	}
}

// StartDue starts Created mailings whose start time has passed and returns how many it started.
func (s *Scheduler) StartDue(ctx context.Context) (int, error) {
	s.jobLock.Lock()
	defer s.jobLock.Unlock()

	ids, err := s.store.ListDue(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	started := 0
	for _, id := range ids {
		ok, err := s.store.MarkStarted(ctx, id)
		if err != nil {
			log.Error("[Scheduler] start %s: %v", id, err)
			continue
		}
		if !ok {
			continue
		}
		metrics.RecordTransition(string(models.StatusStarted))
		s.invalidate(ctx, id)
		if err := s.dispatcher.Start(ctx, id); err != nil {
			log.Error("[Scheduler] dispatch %s: %v", id, err)
			continue
		}
		started++
	}
	return started, nil
}

// FinishExpired finishes Started mailings whose end time has passed and cancels their tasks.
func (s *Scheduler) FinishExpired(ctx context.Context) (int, error) {
	s.jobLock.Lock()
	defer s.jobLock.Unlock()

	ids, err := s.store.ListExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	finished := 0
	for _, id := range ids {
		s.dispatcher.Cancel(id)
		ok, err := s.store.MarkFinished(ctx, id)
		if err != nil {
			log.Error("[Scheduler] finish %s: %v", id, err)
			continue
		}
		if ok {
			metrics.RecordTransition(string(models.StatusFinished))
			s.invalidate(ctx, id)
			finished++
		}
	}
	return finished, nil
}

// ResumeStarted launches a task for every Started mailing that has none in this process.
func (s *Scheduler) ResumeStarted(ctx context.Context) (int, error) {
	s.jobLock.Lock()
	defer s.jobLock.Unlock()

	ids, err := s.store.ListStarted(ctx)
	if err != nil {
		return 0, err
	}
	resumed := 0
	for _, id := range ids {
		if s.dispatcher.Running(id) {
			continue
		}
		if err := s.dispatcher.Start(ctx, id); err != nil {
			if errors.Is(err, mailingErrors.ErrDispatcherClosed) {
				return resumed, err
			}
			log.Error("[Scheduler] resume %s: %v", id, err)
			continue
		}
		resumed++
	}
	return resumed, nil
}

func (s *Scheduler) invalidate(ctx context.Context, id uuid.UUID) {
	if len(s.invalidators) == 0 {
		return
	}
	mailing, err := s.store.FindByID(ctx, types.Scope{All: true}, id)
	if err != nil {
		log.Warn("[Scheduler] load %s for cache invalidation: %v", id, err)
		return
	}
	for _, inv := range s.invalidators {
		if err := inv.Invalidate(ctx, mailing.OwnerID); err != nil {
			log.Warn("[Scheduler] cache invalidation for %s failed: %v", mailing.OwnerID, err)
		}
	}
}
