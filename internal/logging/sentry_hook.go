package logging

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// SentryHook forwards error-and-above log entries to sentry.
type SentryHook struct {
	levels []logrus.Level
}

func NewSentryHook(levels []logrus.Level) *SentryHook {
	return &SentryHook{levels: levels}
}

func (h *SentryHook) Levels() []logrus.Level {
	return h.levels
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Message = entry.Message
	event.Timestamp = entry.Time
	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel:
		event.Level = sentry.LevelFatal
	default:
		event.Level = sentry.LevelError
	}
	for k, v := range entry.Data {
		event.Extra[k] = v
	}

	sentry.CaptureEvent(event)
	if entry.Level <= logrus.FatalLevel {
		sentry.Flush(2 * time.Second)
	}
	return nil
}
