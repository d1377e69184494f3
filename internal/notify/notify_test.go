package notify

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

func event(kind settings.EventKind, key string) settings.Event {
	return settings.Event{
		ID:    uuid.New(),
		Kind:  kind,
		Key:   key,
		Scope: scope.Named("system"),
		At:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)

	d := NewDispatcher(8, Func(func(ev settings.Event) {
		mu.Lock()
		defer mu.Unlock()

		keys = append(keys, ev.Key)
	}))

	d.Notify(event(settings.Created, "a"))
	d.Notify(event(settings.Updated, "b"))
	d.Notify(event(settings.Deleted, "c"))
	d.Close()

	assert.Equal(t, []string{"a", "b", "c"}, keys)

	// closed dispatchers ignore events
	d.Notify(event(settings.Created, "d"))
	d.Close()
	assert.Len(t, keys, 3)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	var count int

	d := NewDispatcher(1, Func(func(settings.Event) {
		select {
		case started <- struct{}{}:
		default:
		}

		<-release
		count++
	}))

	before := testutil.ToFloat64(dropped)

	d.Notify(event(settings.Created, "first"))
	<-started

	// the worker is busy, one event fits the queue, the rest are dropped
	d.Notify(event(settings.Created, "second"))
	d.Notify(event(settings.Created, "third"))
	d.Notify(event(settings.Created, "fourth"))

	close(release)
	d.Close()

	assert.Equal(t, 2, count)
	assert.InDelta(t, 2, testutil.ToFloat64(dropped)-before, 0)
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	var got []string

	d := NewDispatcher(4,
		Func(func(settings.Event) { panic("boom") }),
		Func(func(ev settings.Event) { got = append(got, ev.Key) }),
	)

	d.Notify(event(settings.Created, "a"))
	d.Notify(event(settings.Created, "b"))
	d.Close()

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer

	sink := LogSink{Logger: zerolog.New(&buf).Level(zerolog.InfoLevel)}

	ev := event(settings.Updated, "site.name")
	prev := value.Str("old")
	ev.Setting = &settings.Resolved{Key: "site.name", Type: value.TypeString, Value: value.Str("new")}
	ev.Previous = &prev

	sink.Handle(ev)
	sink.Handle(event(settings.Retrieved, "site.name"))

	out := buf.String()
	assert.Contains(t, out, `"event":"updated"`)
	assert.Contains(t, out, `"value":"new"`)
	assert.Contains(t, out, `"previous":"old"`)
	assert.Contains(t, out, ev.ID.String())
	assert.NotContains(t, out, `"event":"retrieved"`, "retrieved events are debug only")
}

func TestMetricsSink(t *testing.T) {
	counter := events.WithLabelValues(string(settings.Deleted), "metrics_test")
	before := testutil.ToFloat64(counter)

	ev := event(settings.Deleted, "a")
	ev.Scope = scope.Named("metrics_test")

	MetricsSink{}.Handle(ev)
	MetricsSink{}.Handle(ev)

	require.InDelta(t, 2, testutil.ToFloat64(counter)-before, 0)
}
