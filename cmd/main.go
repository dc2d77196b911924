package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"arbmonitor/internal/app"
	"arbmonitor/internal/config"
	"arbmonitor/internal/domain"
	"arbmonitor/internal/supervisor"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const usage = `usage: arbmonitor <run|start|stop|status> <inter|tri> [--user U] [--config config.yaml] [--http-port P] [--debug]`

type command struct {
	action      string
	monitorType domain.MonitorType
	user        string
	flags       *pflag.FlagSet
}

// @title Arbitrage Monitor API
// @version 1.0
// @description Read-only view of the spread monitor.
// @BasePath /api/v1
func main() {
	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err = execute(cmd); err != nil {
		logrus.WithError(err).Errorf("arbmonitor %s %s failed", cmd.action, cmd.monitorType)
		os.Exit(1)
	}
}

func parseCommand(args []string) (command, error) {
	flags := pflag.NewFlagSet("arbmonitor", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	userName := flags.String("user", defaultUser(), "owner of the PID file for start/stop/status")
	if err := flags.Parse(args); err != nil {
		return command{}, err
	}

	positional := flags.Args()
	if len(positional) != 2 {
		return command{}, errors.New("expected an action and a monitor type")
	}
	switch positional[0] {
	case "run", "start", "stop", "status":
	default:
		return command{}, fmt.Errorf("unknown action %q", positional[0])
	}
	monitorType, err := domain.ParseMonitorType(positional[1])
	if err != nil {
		return command{}, err
	}
	if *userName == "" {
		return command{}, errors.New("--user is required")
	}
	return command{action: positional[0], monitorType: monitorType, user: *userName, flags: flags}, nil
}

func execute(cmd command) error {
	if cmd.action == "run" {
		return app.Run(cmd.monitorType, cmd.flags)
	}

	appCfg, err := config.Init(cmd.flags)
	if err != nil {
		return err
	}
	configFile, err := filepath.Abs(cmd.flags.Lookup("config").Value.String())
	if err != nil {
		return err
	}
	self, err := supervisor.SelfCommand(configFile, cmd.childArgs())
	if err != nil {
		return err
	}
	sup := supervisor.New(appCfg.Supervisor.PIDDir, cmd.user, self)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd.action {
	case "start":
		pid, startErr := sup.Start(ctx, cmd.monitorType)
		if startErr != nil {
			return startErr
		}
		fmt.Printf("%s monitor started for %s (pid %d)\n", cmd.monitorType, cmd.user, pid)
	case "stop":
		stopErr := sup.Stop(ctx, cmd.monitorType)
		if errors.Is(stopErr, domain.ErrMonitorNotRunning) {
			fmt.Printf("%s monitor is not running for %s\n", cmd.monitorType, cmd.user)
			return nil
		}
		if stopErr != nil {
			return stopErr
		}
		fmt.Printf("%s monitor stopped for %s\n", cmd.monitorType, cmd.user)
	case "status":
		st, statusErr := sup.Status(ctx, cmd.monitorType)
		if statusErr != nil {
			return statusErr
		}
		if st.Running {
			fmt.Printf("%s monitor is running for %s (pid %d)\n", st.Type, st.User, st.PID)
		} else {
			fmt.Printf("%s monitor is not running for %s\n", st.Type, st.User)
		}
	}
	return nil
}

// childArgs forwards the flags set on this invocation to a spawned monitor.
// config is passed separately as an absolute path and user only names the PID file.
func (c command) childArgs() []string {
	var args []string
	c.flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config", "user":
			return
		}
		args = append(args, "--"+f.Name+"="+f.Value.String())
	})
	return args
}

func defaultUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
