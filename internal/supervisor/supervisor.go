package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"arbmonitor/internal/domain"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"
)

const (
	stopTimeout  = 10 * time.Second
	pollInterval = 100 * time.Millisecond
)

// CommandFactory builds the command that runs one monitor in the foreground.
type CommandFactory func(monitorType domain.MonitorType) *exec.Cmd

// Status describes the monitor process recorded in a PID file.
type Status struct {
	Type    domain.MonitorType `json:"type"`
	User    string             `json:"user"`
	PIDFile string             `json:"pid_file"`
	PID     int32              `json:"pid,omitempty"`
	Running bool               `json:"running"`
}

// Supervisor starts and stops detached monitor processes, one per user and monitor type.
type Supervisor struct {
	pidDir  string
	user    string
	command CommandFactory
}

func New(pidDir, user string, command CommandFactory) *Supervisor {
	return &Supervisor{pidDir: pidDir, user: user, command: command}
}

// PIDFile is {pid_dir}/{user}/{type}_monitor.pid.
func (s *Supervisor) PIDFile(monitorType domain.MonitorType) string {
	return filepath.Join(s.pidDir, s.user, string(monitorType)+"_monitor.pid")
}

// Start terminates a still running previous monitor of the same type, spawns a
// new one and records its PID.
func (s *Supervisor) Start(ctx context.Context, monitorType domain.MonitorType) (int, error) {
	if err := s.Stop(ctx, monitorType); err != nil && !errors.Is(err, domain.ErrMonitorNotRunning) {
		return 0, fmt.Errorf("failed to stop previous %s monitor: %w", monitorType, err)
	}

	cmd := s.command(monitorType)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to spawn %s monitor: %w", monitorType, err)
	}
	pid := cmd.Process.Pid
	// reap the child if it exits while this process is still alive
	go func() { _ = cmd.Wait() }()

	if err := s.writePID(monitorType, pid); err != nil {
		_ = cmd.Process.Kill()
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"type": monitorType, "user": s.user, "pid": pid}).Info("✅ Monitor started")
	return pid, nil
}

// Stop sends SIGTERM to the recorded process, waits for it to exit and removes
// the PID file. It returns ErrMonitorNotRunning when there is nothing to stop.
func (s *Supervisor) Stop(ctx context.Context, monitorType domain.MonitorType) error {
	pid, err := s.readPID(monitorType)
	if err != nil {
		return err
	}

	proc, running := s.lookup(ctx, pid, monitorType)
	if !running {
		s.removePID(monitorType)
		return fmt.Errorf("pid %d: %w", pid, domain.ErrMonitorNotRunning)
	}

	if err = proc.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("failed to terminate pid %d: %w", pid, err)
	}
	if err = waitForExit(ctx, proc); err != nil {
		logrus.WithField("pid", pid).Warn("Monitor ignored SIGTERM, killing")
		if killErr := proc.KillWithContext(ctx); killErr != nil {
			return fmt.Errorf("failed to kill pid %d: %w", pid, killErr)
		}
	}

	s.removePID(monitorType)
	logrus.WithFields(logrus.Fields{"type": monitorType, "user": s.user, "pid": pid}).Info("Monitor stopped")
	return nil
}

func (s *Supervisor) Status(ctx context.Context, monitorType domain.MonitorType) (Status, error) {
	st := Status{Type: monitorType, User: s.user, PIDFile: s.PIDFile(monitorType)}
	pid, err := s.readPID(monitorType)
	if errors.Is(err, domain.ErrMonitorNotRunning) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.PID = pid
	_, st.Running = s.lookup(ctx, pid, monitorType)
	return st, nil
}

// lookup returns the recorded process only if it is alive and still runs the
// given monitor. A recycled PID that belongs to anything else counts as stale.
func (s *Supervisor) lookup(ctx context.Context, pid int32, monitorType domain.MonitorType) (*process.Process, bool) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil || !alive(ctx, proc) {
		return nil, false
	}
	args, err := proc.CmdlineSliceWithContext(ctx)
	if err != nil || !runsMonitor(args, monitorType) {
		logrus.WithFields(logrus.Fields{"pid": pid, "type": monitorType}).Debug("PID belongs to another process, treating pid file as stale")
		return nil, false
	}
	return proc, true
}

// runsMonitor reports whether args contain `run <type>`.
func runsMonitor(args []string, monitorType domain.MonitorType) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "run" && args[i+1] == string(monitorType) {
			return true
		}
	}
	return false
}

// alive treats zombies as exited.
func alive(ctx context.Context, proc *process.Process) bool {
	running, err := proc.IsRunningWithContext(ctx)
	if err != nil || !running {
		return false
	}
	statuses, err := proc.StatusWithContext(ctx)
	if err != nil {
		return true
	}
	for _, st := range statuses {
		if st == process.Zombie {
			return false
		}
	}
	return true
}

func waitForExit(ctx context.Context, proc *process.Process) error {
	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for alive(ctx, proc) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (s *Supervisor) writePID(monitorType domain.MonitorType, pid int) error {
	path := s.PIDFile(monitorType)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create pid dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

func (s *Supervisor) readPID(monitorType domain.MonitorType) (int32, error) {
	path := s.PIDFile(monitorType)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("no pid file %s: %w", path, domain.ErrMonitorNotRunning)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read pid file: %w", err)
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err != nil || pid <= 0 {
		s.removePID(monitorType)
		return 0, fmt.Errorf("corrupt pid file %s: %w", path, domain.ErrMonitorNotRunning)
	}
	return int32(pid), nil
}

func (s *Supervisor) removePID(monitorType domain.MonitorType) {
	if err := os.Remove(s.PIDFile(monitorType)); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to remove pid file")
	}
}
