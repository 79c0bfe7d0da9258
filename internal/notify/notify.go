// Package notify pushes the full, freshly enumerated extension list to
// every observer after a state change. There is no diffing: each event
// carries the complete ordered list.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/rs/zerolog"
)

// EventExtensionsUpdated is the name of the only event type.
const EventExtensionsUpdated = "extensions-updated"

// Event is what observers receive.
type Event struct {
	ID         string           `json:"id"`
	Event      string           `json:"event"`
	Extensions []extension.Info `json:"extensions"`
	Time       time.Time        `json:"time"`
}

// Source recomputes the current extension view.
type Source func() ([]extension.Info, error)

// Sink receives published events.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Publish calls f(ev).
func (f SinkFunc) Publish(ev Event) { f(ev) }

// Notifier recomputes the view and fans it out to sinks.
type Notifier struct {
	source Source
	logger zerolog.Logger

	mu    sync.Mutex
	sinks []Sink
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithSink adds a sink.
func WithSink(s Sink) Option {
	return func(n *Notifier) { n.sinks = append(n.sinks, s) }
}

// WithLogger sets the notifier's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Notifier) { n.logger = l }
}

// New returns a Notifier reading from source.
func New(source Source, opts ...Option) *Notifier {
	n := &Notifier{source: source, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify recomputes the extension view and publishes it. Failures to
// enumerate are logged; observers keep their previous view. The change being
// announced has already happened, so a cancelled ctx does not suppress it.
func (n *Notifier) Notify(context.Context) {
	if _, err := n.Publish(); err != nil {
		n.logger.Error().Err(err).Msg("could not refresh extension list")
	}
}

// Publish is Notify returning the published event or the enumeration
// error. Events are delivered to sinks in the order they are produced.
func (n *Notifier) Publish() (Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	infos, err := n.source()
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:         uuid.NewString(),
		Event:      EventExtensionsUpdated,
		Extensions: infos,
		Time:       time.Now().UTC(),
	}

	for _, s := range n.sinks {
		s.Publish(ev)
	}
	n.logger.Debug().Str("event", ev.ID).Int("extensions", len(infos)).Msg("extensions updated")
	return ev, nil
}

// LogSink logs a summary line per event.
func LogSink(l zerolog.Logger) Sink {
	return SinkFunc(func(ev Event) {
		enabled := 0
		for _, info := range ev.Extensions {
			if info.Enabled {
				enabled++
			}
		}
		l.Info().Str("event", ev.Event).Int("installed", len(ev.Extensions)).Int("enabled", enabled).Msg("extension view changed")
	})
}
