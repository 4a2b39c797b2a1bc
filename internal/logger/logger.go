package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/isheraz/stroll-test/internal/config"
	"github.com/isheraz/stroll-test/internal/logfile"
)

// New builds the application logger from configuration. When cfg.LogFile is
// set, every entry is also appended to that file; the returned hook must be
// closed on shutdown.
func New(cfg *config.AppConfig) (*logrus.Logger, *logfile.Hook, error) {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch cfg.Environment {
	case "production", "staging":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: logfile.TimestampFormat,
		})
	}

	var hook *logfile.Hook
	if cfg.LogFile != "" {
		hook, err = logfile.NewHook(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		log.AddHook(hook)
	}

	log.Debugf("Log level set to: %s", log.GetLevel().String())
	return log, hook, nil
}

// Discard returns a logger that writes nowhere. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Component returns an entry tagged with the component name.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
