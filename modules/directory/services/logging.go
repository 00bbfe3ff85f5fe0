package services

import (
	"context"

	"github.com/jacksonlee411/contact-directory/pkg/logging"
	"github.com/sirupsen/logrus"
)

func loggerFromContext(ctx context.Context) *logrus.Entry {
	return logging.FromContext(ctx)
}

func logWithFields(ctx context.Context, level logrus.Level, msg string, fields logrus.Fields) {
	logger := loggerFromContext(ctx)
	if logger == nil {
		return
	}
	logger.WithFields(fields).Log(level, msg)
}

// logMutation writes the one line every write operation emits.
func logMutation(ctx context.Context, op string, collection string, id string, err error) {
	fields := logrus.Fields{"op": op, "collection": collection, "id": id, "outcome": outcomeOf(err)}
	if err != nil {
		fields["error"] = err.Error()
		logWithFields(ctx, logrus.WarnLevel, "directory mutation rejected", fields)
		return
	}
	logWithFields(ctx, logrus.InfoLevel, "directory mutation applied", fields)
}
