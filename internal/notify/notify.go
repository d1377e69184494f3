// Package notify delivers settings events to sinks outside the request path.
package notify

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
)

// DefaultBuffer is the queue size used when none is configured.
const DefaultBuffer = 64

var dropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "settings_events_dropped_total",
	Help: "Settings events dropped because the dispatch queue was full.",
})

// Sink consumes events on the dispatcher goroutine.
type Sink interface {
	Handle(ev settings.Event)
}

// Func adapts a function to Sink.
type Func func(ev settings.Event)

// Handle calls f.
func (f Func) Handle(ev settings.Event) { f(ev) }

// Dispatcher queues events and hands them to its sinks from a single worker
// goroutine. Notify never blocks: when the queue is full the event is
// dropped and a warning is logged.
type Dispatcher struct {
	queue chan settings.Event
	sinks []Sink
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ settings.Notifier = (*Dispatcher)(nil)

// NewDispatcher starts a dispatcher with a queue of buffer events.
func NewDispatcher(buffer int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	d := &Dispatcher{
		queue: make(chan settings.Event, buffer),
		sinks: sinks,
		done:  make(chan struct{}),
	}

	go d.run()

	return d
}

// Notify implements settings.Notifier.
func (d *Dispatcher) Notify(ev settings.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	select {
	case d.queue <- ev:
	default:
		dropped.Inc()
		log.Warn().Str("event", string(ev.Kind)).Str("setting", ev.Key).Msg("settings event queue full, dropping event")
	}
}

// Close stops accepting events, delivers what is queued and waits for the
// worker to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for ev := range d.queue {
		for _, s := range d.sinks {
			deliver(s, ev)
		}
	}
}

func deliver(s Sink, ev settings.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event", string(ev.Kind)).Msg("settings event sink failed")
		}
	}()

	s.Handle(ev)
}

// LogSink writes every event to a zerolog logger. Retrieved events are
// logged at debug level, writes at info level.
type LogSink struct {
	Logger zerolog.Logger
}

// NewLogSink returns a LogSink on the global logger.
func NewLogSink() LogSink {
	return LogSink{Logger: log.Logger}
}

func (s LogSink) Handle(ev settings.Event) {
	e := s.Logger.Info()
	if ev.Kind == settings.Retrieved {
		e = s.Logger.Debug()
	}

	e = e.Str("event_id", ev.ID.String()).
		Str("event", string(ev.Kind)).
		Str("scope", ev.Scope.String()).
		Str("setting", ev.Key)

	if ev.Setting != nil {
		e = e.Str("value", ev.Setting.Value.String()).Bool("default", ev.Setting.IsDefault)
	}

	if ev.Previous != nil {
		e = e.Str("previous", ev.Previous.String())
	}

	e.Time("at", ev.At).Msg("setting event")
}

var events = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "settings_events_total",
	Help: "Settings events by kind and scope.",
}, []string{"kind", "scope"})

// MetricsSink counts events per kind and scope name.
type MetricsSink struct{}

func (MetricsSink) Handle(ev settings.Event) {
	events.WithLabelValues(string(ev.Kind), ev.Scope.Name).Inc()
}
