package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Scheduler runs monitor cycles until its context is canceled.
// Cycle starts are at least the poll interval apart and never overlap.
type Scheduler struct {
	monitor  *Monitor
	interval time.Duration
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
	done  chan struct{}
}

func NewScheduler(monitor *Monitor, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Scheduler{monitor: monitor, interval: interval, done: make(chan struct{})}
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	job := func(jobCtx context.Context) {
		cycleID := uuid.New()
		logCycleError(cycleID, s.monitor.RunCycle(jobCtx, cycleID))
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithName(string(s.monitor.Type())+"-monitor"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
	scheduler.Start()
	logrus.Infof("Monitor %s scheduled every %s", s.monitor.Type(), s.interval)

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

// Shutdown waits for the running cycle to finish. It is safe to call more than once.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	sched := s.sched
	s.sched = nil
	s.mu.Unlock()
	if sched == nil {
		return nil
	}
	err := sched.Shutdown()
	close(s.done)
	return err
}

// Done is closed once the scheduler has been shut down.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// logCycleError reports a failed cycle. A cycle cut short by shutdown is not a failure.
func logCycleError(cycleID uuid.UUID, err error) {
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logrus.WithField("cycle_id", cycleID).Infof("Monitor cycle interrupted by shutdown: %v", err)
	default:
		logrus.WithField("cycle_id", cycleID).Errorf("Monitor cycle failed, continuing: %v", err)
	}
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}
