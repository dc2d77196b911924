package sink

import (
	"context"

	"arbmonitor/internal/adapters"
	"arbmonitor/internal/domain"

	"github.com/sirupsen/logrus"
)

// DatabaseSink persists every record on its own; a failing record is logged and skipped.
type DatabaseSink struct {
	repo      adapters.SpreadRepository
	threshold Threshold
}

func NewDatabaseSink(repo adapters.SpreadRepository, threshold Threshold) *DatabaseSink {
	return &DatabaseSink{repo: repo, threshold: threshold}
}

func (s *DatabaseSink) Name() string { return "database" }

func (s *DatabaseSink) RunInter(ctx context.Context, batch domain.InterBatch) error {
	spreads := filterInter(batch.Spreads, s.threshold)
	failed := 0
	for _, sp := range spreads {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.repo.SaveSpread(ctx, batch.CycleID, sp); err != nil {
			failed++
			writeErr := &domain.SinkWriteError{Sink: s.Name(), Record: sp.Key(), Err: err}
			logrus.WithError(writeErr).WithField("cycle_id", batch.CycleID).Debug("Spread record skipped")
		}
	}
	s.logSummary(batch.CycleID.String(), len(spreads), failed)
	return nil
}

func (s *DatabaseSink) RunTri(ctx context.Context, batch domain.TriBatch) error {
	spreads := filterTri(batch.Spreads, s.threshold)
	failed := 0
	for _, sp := range spreads {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.repo.SaveTriSpread(ctx, batch.CycleID, sp); err != nil {
			failed++
			writeErr := &domain.SinkWriteError{Sink: s.Name(), Record: sp.Route.String(), Err: err}
			logrus.WithError(writeErr).WithField("cycle_id", batch.CycleID).Debug("Triangular spread record skipped")
		}
	}
	s.logSummary(batch.CycleID.String(), len(spreads), failed)
	return nil
}

func (s *DatabaseSink) logSummary(cycleID string, total, failed int) {
	if failed > 0 {
		logrus.Warnf("%d of %d records were not persisted; cycle %s", failed, total, cycleID)
	}
}
