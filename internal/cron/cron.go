package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/types"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 2 * time.Minute

// Sweeper moves elapsed work items to pastDue. Implemented by service.WorkItemService.
type Sweeper interface {
	Kind() types.EntityKind
	SweepPastDue(ctx context.Context) (int64, error)
}

// Expirer withdraws stale invitations. Implemented by service.InvitationService.
type Expirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration) (int, error)
}

// Config holds the schedules. Empty schedules disable a job.
type Config struct {
	StatusSweepSchedule string
	InvitationSchedule  string
	InvitationTTL       time.Duration
}

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	sweepers []Sweeper
	expirer  Expirer
	log      *zap.Logger
}

// zapLogger adapts zap to cron.Logger.
type zapLogger struct{ log *zap.SugaredLogger }

func (l zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("[Cron] "+msg, keysAndValues...)
}

func (l zapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("[Cron] "+msg, append(keysAndValues, "error", err)...)
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg Config, expirer Expirer, log *zap.Logger, sweepers ...Sweeper) *Scheduler {
	logger := zapLogger{log.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		cfg:      cfg,
		sweepers: sweepers,
		expirer:  expirer,
		log:      log,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	if s.cfg.StatusSweepSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.StatusSweepSchedule, s.sweepStatuses); err != nil {
			return fmt.Errorf("status sweep schedule: %w", err)
		}
	}
	if s.cfg.InvitationSchedule != "" && s.expirer != nil {
		if _, err := s.cron.AddFunc(s.cfg.InvitationSchedule, s.expireInvitations); err != nil {
			return fmt.Errorf("invitation expiry schedule: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info("[Cron] Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("[Cron] Scheduler stopped")
}

// sweepStatuses persists pastDue for every item whose deadline elapsed
// since it was last read.
func (s *Scheduler) sweepStatuses() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	for _, sw := range s.sweepers {
		n, err := sw.SweepPastDue(ctx)
		if err != nil {
			s.log.Error("[Cron] Status sweep failed", zap.String("kind", string(sw.Kind())), zap.Error(err))
			continue
		}
		if n > 0 {
			s.log.Info("[Cron] Marked past due", zap.String("kind", string(sw.Kind())), zap.Int64("count", n))
		}
	}
}

func (s *Scheduler) expireInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.expirer.ExpireStale(ctx, s.cfg.InvitationTTL)
	if err != nil {
		s.log.Error("[Cron] Invitation expiry failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("[Cron] Expired invitations", zap.Int("count", n))
	}
}
