package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"arbmonitor/internal/domain"

	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeAppend    Mode = "append"
	ModeOverwrite Mode = "overwrite"
)

const timePrettyLayout = "2006-01-02 15:04:05.000000"

var (
	interHeader = []string{"buy_exchange", "sell_exchange", "spread", "time_pretty", "buy_price", "sell_price", "currency_pair", "timestamp"}
	triHeader   = []string{"exchange", "spread", "time_pretty", "currency_pair", "timestamp"}
)

// CSVSink exports spreads to a CSV file. Overwrite mode keeps only the
// latest cycle, append mode accumulates history under a single header.
type CSVSink struct {
	path      string
	mode      Mode
	threshold Threshold
	mu        sync.Mutex
}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAppend, "":
		return ModeAppend, nil
	case ModeOverwrite, "override":
		return ModeOverwrite, nil
	}
	return "", fmt.Errorf("unknown csv mode %q", s)
}

func NewCSVSink(path string, mode Mode, threshold Threshold) (*CSVSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("csv sink path is required")
	}
	if mode != ModeAppend && mode != ModeOverwrite {
		return nil, fmt.Errorf("unknown csv mode %q", mode)
	}
	return &CSVSink{path: path, mode: mode, threshold: threshold}, nil
}

func (s *CSVSink) Name() string { return "csv:" + filepath.Base(s.path) }

func (s *CSVSink) RunInter(_ context.Context, batch domain.InterBatch) error {
	spreads := filterInter(batch.Spreads, s.threshold)
	rows := make([][]string, 0, len(spreads))
	for _, sp := range spreads {
		if !sp.Buy.HasPrices() || !sp.Sell.HasPrices() {
			logrus.WithField("spread", sp.Key()).Debug("CSV row skipped, source has missing prices")
			continue
		}
		rows = append(rows, []string{
			sp.Buy.Exchange,
			sp.Sell.Exchange,
			formatFloat(sp.Value),
			sp.RecordedAt.UTC().Format(timePrettyLayout),
			formatFloat(sp.BuyPrice()),
			formatFloat(sp.SellPrice()),
			sp.Pair.String(),
			formatTimestamp(sp.RecordedAt),
		})
	}
	return s.write(interHeader, rows)
}

func (s *CSVSink) RunTri(_ context.Context, batch domain.TriBatch) error {
	spreads := filterTri(batch.Spreads, s.threshold)
	rows := make([][]string, 0, len(spreads))
	for _, sp := range spreads {
		symbols := sp.Route.Symbols()
		rows = append(rows, []string{
			sp.Route.Exchange,
			formatFloat(sp.Value),
			sp.RecordedAt.UTC().Format(timePrettyLayout),
			strings.Join(symbols[:], "|"),
			formatTimestamp(sp.RecordedAt),
		})
	}
	return s.write(triHeader, rows)
}

func (s *CSVSink) write(header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create csv directory: %w", err)
	}
	if s.mode == ModeOverwrite {
		return s.overwrite(header, rows)
	}
	return s.append(header, rows)
}

// overwrite writes a temp file and renames it so readers never see a half-written file.
func (s *CSVSink) overwrite(header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp csv: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err = w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err = w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	// CreateTemp opens with 0600; keep the same mode as the append path
	if err = tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set csv permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp csv: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace csv file: %w", err)
	}
	return nil
}

func (s *CSVSink) append(header []string, rows [][]string) error {
	needHeader := false
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		needHeader = true
	case err != nil:
		return fmt.Errorf("failed to stat csv file: %w", err)
	case info.Size() == 0:
		needHeader = true
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	w := csv.NewWriter(f)
	if needHeader {
		if err = w.Write(header); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	if err = w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return f.Close()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatTimestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}
