package logging

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

// New builds a logger writing to out. format is "json" or "text"; an unknown
// level falls back to info.
func New(out io.Writer, level string, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// FromContext returns the request logger, or nil when none was attached.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return nil
	}
	entry, _ := ctx.Value(loggerKey{}).(*logrus.Entry)
	return entry
}
