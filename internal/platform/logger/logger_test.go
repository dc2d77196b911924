package logger

import (
	"os"
	"path/filepath"
	"testing"

	"arbmonitor/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func restoreLogrus(t *testing.T) {
	level := logrus.GetLevel()
	out := logrus.StandardLogger().Out
	t.Cleanup(func() {
		logrus.SetLevel(level)
		logrus.SetOutput(out)
	})
}

func TestSetup_Levels(t *testing.T) {
	restoreLogrus(t)

	cases := []struct {
		name  string
		level string
		debug bool
		want  logrus.Level
	}{
		{name: "configured level", level: "warn", want: logrus.WarnLevel},
		{name: "invalid falls back to info", level: "loud", want: logrus.InfoLevel},
		{name: "debug wins", level: "error", debug: true, want: logrus.DebugLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			closer := Setup(config.Logging{Level: tc.level}, tc.debug)
			require.NoError(t, closer.Close())
			require.Equal(t, tc.want, logrus.GetLevel())
		})
	}
}

func TestSetup_WritesRotatingFile(t *testing.T) {
	restoreLogrus(t)

	path := filepath.Join(t.TempDir(), "monitor.log")
	closer := Setup(config.Logging{Level: "info", File: path, MaxSizeMB: 1}, false)

	logrus.Info("cycle finished")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "cycle finished")
}
