package sink

import (
	"context"
	"sync"
	"time"

	"arbmonitor/internal/adapters"
	"arbmonitor/internal/domain"

	"github.com/sirupsen/logrus"
)

const defaultCooldown = 5 * time.Minute

// NotifySink alerts on profitable spreads at or above its threshold,
// at most once per combination within the cooldown.
type NotifySink struct {
	notifier  adapters.Notifier
	threshold float64
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewNotifySink(notifier adapters.Notifier, threshold float64, cooldown time.Duration) *NotifySink {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &NotifySink{
		notifier:  notifier,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		lastSent:  make(map[string]time.Time),
	}
}

func (s *NotifySink) Name() string { return "notify" }

func (s *NotifySink) RunInter(ctx context.Context, batch domain.InterBatch) error {
	for _, sp := range batch.Spreads {
		if !sp.Profitable() || sp.Value < s.threshold {
			continue
		}
		s.send(ctx, sp.Key(), func(ctx context.Context) error { return s.notifier.NotifySpread(ctx, sp) })
	}
	return nil
}

func (s *NotifySink) RunTri(ctx context.Context, batch domain.TriBatch) error {
	for _, sp := range batch.Spreads {
		if !sp.Profitable() || sp.Value < s.threshold {
			continue
		}
		s.send(ctx, "tri:"+sp.Route.Exchange+":"+sp.Route.String(), func(ctx context.Context) error { return s.notifier.NotifyTriSpread(ctx, sp) })
	}
	return nil
}

func (s *NotifySink) send(ctx context.Context, key string, notify func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if last, ok := s.lastSent[key]; ok && now.Sub(last) < s.cooldown {
		return
	}
	if err := notify(ctx); err != nil {
		writeErr := &domain.SinkWriteError{Sink: s.Name(), Record: key, Err: err}
		logrus.WithError(writeErr).Debug("Notification not sent")
		return
	}
	s.lastSent[key] = now
}
