package logger

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")

	// ErrUnknownLevel is returned for a Log.LogLevel zerolog does not know.
	ErrUnknownLevel = errors.New("unsupported log level")
)

var writeErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "log_write_errors_total",
	Help: "Log events that could not be written.",
})

// ErrorHandler reports log events that could not be written to stderr.
func ErrorHandler(err error) {
	writeErrors.Inc()

	_, _ = fmt.Fprintf(os.Stderr, "logger: dropped event: %v\n", err)
}
