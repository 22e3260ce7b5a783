// Package pubsubhook publishes Ectoplasma events to a watermill topic so
// external observers can consume them from any supported broker.
package pubsubhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/xraph/ectoplasma/event"
	"github.com/xraph/ectoplasma/plugin"
)

// DefaultTopic is the topic events are published to.
const DefaultTopic = "ectoplasma.events"

// Metadata keys set on every message.
const (
	MetadataEventName = "event_name"
	MetadataEventID   = "event_id"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin     = (*Extension)(nil)
	_ plugin.EventSink  = (*Extension)(nil)
	_ plugin.OnShutdown = (*Extension)(nil)
)

// Envelope is the JSON payload of a published message.
type Envelope struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// Extension is an event sink that publishes every event as one message.
type Extension struct {
	publisher       message.Publisher
	topic           string
	closeOnShutdown bool
	logger          *slog.Logger
}

// Option configures an Extension.
type Option func(*Extension)

// WithTopic overrides DefaultTopic.
func WithTopic(topic string) Option {
	return func(e *Extension) { e.topic = topic }
}

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithCloseOnShutdown closes the publisher when the engine stops.
func WithCloseOnShutdown() Option {
	return func(e *Extension) { e.closeOnShutdown = true }
}

// New creates an Extension publishing through p.
func New(p message.Publisher, opts ...Option) *Extension {
	e := &Extension{
		publisher: p,
		topic:     DefaultTopic,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "pubsub-hook" }

// OnEvent implements plugin.EventSink.
func (e *Extension) OnEvent(ctx context.Context, evt event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("pubsub_hook: encode %s: %w", evt.EventName(), err)
	}
	payload, err := json.Marshal(Envelope{Name: evt.EventName(), Data: data})
	if err != nil {
		return fmt.Errorf("pubsub_hook: encode envelope: %w", err)
	}

	meta := evt.EventMeta()
	messageID := meta.ID.String()
	if meta.ID.IsNil() {
		messageID = watermill.NewUUID()
	}

	msg := message.NewMessage(messageID, payload)
	msg.Metadata.Set(MetadataEventName, evt.EventName())
	msg.Metadata.Set(MetadataEventID, messageID)
	msg.SetContext(ctx)

	if err := e.publisher.Publish(e.topic, msg); err != nil {
		return fmt.Errorf("pubsub_hook: publish %s: %w", evt.EventName(), err)
	}

	e.logger.Debug("published event",
		"event_name", evt.EventName(),
		"event_id", messageID,
		"topic", e.topic,
	)
	return nil
}

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(_ context.Context) error {
	if !e.closeOnShutdown {
		return nil
	}
	return e.publisher.Close()
}
