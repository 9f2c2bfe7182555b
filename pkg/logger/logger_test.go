package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetGlobalLogLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	require.NoError(t, SetGlobalLogLevel("DEBUG"))
	require.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	require.NoError(t, SetGlobalLogLevel("warn"))
	require.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	require.Error(t, SetGlobalLogLevel("loud"))
	require.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	New("unit").WithField("player", "Alice").Info("joined %s", "lobby")

	out := buf.String()
	require.Contains(t, out, "component=unit")
	require.Contains(t, out, "player=Alice")
	require.Contains(t, out, "joined lobby")
}
