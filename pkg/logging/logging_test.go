package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")
	require.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.WithField("op", "create").Warn("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["msg"])
	require.Equal(t, "create", line["op"])
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger := New(&bytes.Buffer{}, "loud", "text")
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, isText := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, isText)
}

func TestFromContext(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))

	entry := logrus.NewEntry(logrus.New()).WithField("request_id", "r1")
	ctx := WithLogger(context.Background(), entry)
	require.Same(t, entry, FromContext(ctx))
}
