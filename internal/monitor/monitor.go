package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"arbmonitor/internal/domain"
	"arbmonitor/internal/spread"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Monitor runs refresh, compute, timestamp and dispatch for one monitor type.
// It owns the price sources; update actions only see batch copies.
type Monitor struct {
	kind   domain.MonitorType
	cfg    Configuration
	status *status
	now    func() time.Time
}

func New(kind domain.MonitorType, cfg Configuration) (*Monitor, error) {
	if kind != domain.MonitorInter && kind != domain.MonitorTri {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMonitorType, kind)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor configuration: %w", err)
	}
	st := &status{snap: StatusSnapshot{
		Type:             kind,
		StartedAt:        time.Now().UTC(),
		Sources:          len(cfg.PriceSources),
		Routes:           len(cfg.TriangularRoutes),
		MinSpread:        cfg.MinSpread,
		PollIntervalSecs: cfg.PollInterval.Seconds(),
	}}
	return &Monitor{kind: kind, cfg: cfg, status: st, now: time.Now}, nil
}

func (m *Monitor) Type() domain.MonitorType    { return m.kind }
func (m *Monitor) PollInterval() time.Duration { return m.cfg.PollInterval }
func (m *Monitor) Status() StatusSnapshot      { return m.status.get() }

// RunCycle executes one cycle of the configured type. A panic anywhere in
// the cycle is recovered and returned as an error so the loop keeps going.
func (m *Monitor) RunCycle(ctx context.Context, cycleID uuid.UUID) (err error) {
	started := m.now()
	report := cycleReport{id: cycleID}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle %s panicked: %v", cycleID, r)
			logrus.WithField("cycle_id", cycleID).Debugf("Cycle panic stack: %s", debug.Stack())
		}
		report.err = err
		report.at = started.UTC()
		report.duration = m.now().Sub(started)
		m.status.record(report)
	}()

	switch m.kind {
	case domain.MonitorInter:
		_, err = m.runInter(ctx, cycleID, &report)
	case domain.MonitorTri:
		_, err = m.runTri(ctx, cycleID, &report)
	}
	return err
}

// RunInterCycle refreshes all sources, computes pairwise spreads and dispatches the batch.
func (m *Monitor) RunInterCycle(ctx context.Context, cycleID uuid.UUID) (domain.InterBatch, error) {
	var report cycleReport
	return m.runInter(ctx, cycleID, &report)
}

// RunTriCycle evaluates every triangular route and dispatches the batch.
func (m *Monitor) RunTriCycle(ctx context.Context, cycleID uuid.UUID) (domain.TriBatch, error) {
	var report cycleReport
	return m.runTri(ctx, cycleID, &report)
}

func (m *Monitor) runInter(ctx context.Context, cycleID uuid.UUID, report *cycleReport) (domain.InterBatch, error) {
	log := logrus.WithFields(logrus.Fields{"cycle_id": cycleID, "monitor": m.kind})

	// STEP 1: refresh every source; failures keep stale prices
	refreshErrs := refreshSources(ctx, m.cfg.PriceSources, m.cfg.Workers, m.cfg.RequestTimeout)
	report.refreshFailures = len(refreshErrs)
	if err := ctx.Err(); err != nil {
		return domain.InterBatch{}, fmt.Errorf("cycle aborted after refresh: %w", err)
	}

	// STEP 2: compute spreads against the refreshed snapshot
	snapshots := make([]domain.PriceSnapshot, 0, len(m.cfg.PriceSources))
	for _, s := range m.cfg.PriceSources {
		snapshots = append(snapshots, s.Snapshot())
	}
	spreads, skipped := spread.Pairwise(snapshots)
	for _, e := range skipped {
		log.WithError(e).Debug("Pair skipped this cycle")
	}
	report.skipped = len(skipped)

	// STEP 3: timestamp the batch
	ts := m.now().UTC()
	for i := range spreads {
		spreads[i].RecordedAt = ts
		if spreads[i].Profitable() {
			report.profitable++
		}
		if spreads[i].Value >= m.cfg.MinSpread && m.cfg.MinSpread > 0 {
			report.aboveMin++
			log.WithFields(logrus.Fields{
				"buy":    spreads[i].Buy.Exchange,
				"sell":   spreads[i].Sell.Exchange,
				"pair":   spreads[i].Pair,
				"spread": spreads[i].Value,
			}).Info("Spread above minimum")
		}
	}
	report.spreads = len(spreads)
	batch := domain.InterBatch{CycleID: cycleID, Timestamp: ts, Spreads: spreads, Sources: snapshots}

	// STEP 4: dispatch in configured order
	for _, action := range m.cfg.UpdateActions {
		if err := runAction(ctx, action.Name(), func(ctx context.Context) error { return action.RunInter(ctx, batch) }); err != nil {
			report.actionFailures++
			log.WithError(err).WithField("action", action.Name()).Debug("Update action failed")
		}
	}

	log.Infof("%d spreads computed (%d profitable, %d sources failed to refresh)", len(spreads), report.profitable, len(refreshErrs))
	return batch, nil
}

func (m *Monitor) runTri(ctx context.Context, cycleID uuid.UUID, report *cycleReport) (domain.TriBatch, error) {
	log := logrus.WithFields(logrus.Fields{"cycle_id": cycleID, "monitor": m.kind})

	// STEP 1 and 2: triangular detection pulls live depth per route
	spreads, skipped := evaluateRoutes(ctx, m.cfg.TriangularRoutes, m.cfg.Workers, 3*m.cfg.RequestTimeout)
	for _, e := range skipped {
		log.WithError(e).Debug("Route skipped this cycle")
	}
	report.skipped = len(skipped)
	if err := ctx.Err(); err != nil {
		return domain.TriBatch{}, fmt.Errorf("cycle aborted after route evaluation: %w", err)
	}

	// STEP 3: timestamp the batch
	ts := m.now().UTC()
	for i := range spreads {
		spreads[i].RecordedAt = ts
		if spreads[i].Profitable() {
			report.profitable++
		}
		if spreads[i].Value >= m.cfg.MinSpread && m.cfg.MinSpread > 0 {
			report.aboveMin++
		}
	}
	report.spreads = len(spreads)
	routes := make([]domain.TriangularRoute, 0, len(m.cfg.TriangularRoutes))
	for _, r := range m.cfg.TriangularRoutes {
		routes = append(routes, r.TriangularRoute)
	}
	batch := domain.TriBatch{CycleID: cycleID, Timestamp: ts, Spreads: spreads, Routes: routes}

	// STEP 4: dispatch in configured order
	for _, action := range m.cfg.UpdateActions {
		if err := runAction(ctx, action.Name(), func(ctx context.Context) error { return action.RunTri(ctx, batch) }); err != nil {
			report.actionFailures++
			log.WithError(err).WithField("action", action.Name()).Debug("Update action failed")
		}
	}

	log.Infof("%d triangular spreads computed (%d profitable, %d routes skipped)", len(spreads), report.profitable, len(skipped))
	return batch, nil
}

// runAction isolates one update action so a panicking sink does not starve the next ones.
func runAction(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("update action %s panicked: %v", name, r)
		}
	}()
	return fn(ctx)
}
