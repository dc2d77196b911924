package supervisor

import (
	"os"
	"os/exec"
	"syscall"

	"arbmonitor/internal/domain"
)

// SelfCommand re-runs the current binary with `run <type>` in a new session,
// so the monitor outlives the CLI invocation that started it. extra is appended
// after the config flag.
func SelfCommand(configFile string, extra []string) (CommandFactory, error) {
	bin, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return commandFor(bin, configFile, extra), nil
}

func commandFor(bin, configFile string, extra []string) CommandFactory {
	return func(monitorType domain.MonitorType) *exec.Cmd {
		args := append([]string{"run", string(monitorType), "--config", configFile}, extra...)
		cmd := exec.Command(bin, args...)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		return cmd
	}
}
