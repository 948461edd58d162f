package logger

import (
	"fmt"
	"io"
	"path"
	"runtime"

	log "github.com/sirupsen/logrus"
)

const TimestampFormat = "2006-01-02 15:04:05"

type Option func(*log.Logger)

func WithOutput(w io.Writer) Option {
	return func(l *log.Logger) {
		l.SetOutput(w)
	}
}

// SetupLogger configures the std logrus logger used across the service.
func SetupLogger(level string, opts ...Option) {
	std := log.StandardLogger()
	for _, opt := range opts {
		opt(std)
	}

	loggerLevel, err := log.ParseLevel(level)
	log.SetReportCaller(true)

	log.SetFormatter(&log.JSONFormatter{
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			return "", fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
		},
		TimestampFormat: TimestampFormat,
	})

	if err != nil {
		log.Infof("Level setup default INFO, err: %v", err)
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(loggerLevel)
	}
}
