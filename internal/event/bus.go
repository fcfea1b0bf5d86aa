package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"

	"github.com/planforge/planforge/pkg/panicerr"
)

// PubSub is the transport the bus runs on.
type PubSub interface {
	message.Publisher
	message.Subscriber
}

// Bus fans schedule events out to in-process subscribers. The engine
// works fine without one (a nil bus is a no-op at the call sites); the
// watcher and daemon-style embedders attach it for observability.
type Bus struct {
	pubSub PubSub
	router *message.Router
	logger watermill.LoggerAdapter
}

// Handler is a function that handles typed events.
type Handler[T any] func(ctx context.Context, event *Event[T]) error

// NewBus creates an in-process event bus.
func NewBus() (*Bus, error) {
	logger := watermill.NewStdLogger(false, false)

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 256,
		},
		logger,
	)

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	return &Bus{
		pubSub: pubSub,
		router: router,
		logger: logger,
	}, nil
}

// Start runs the router until the context is cancelled.
func (b *Bus) Start(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running returns a channel closed once the router is running.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Stop closes the router.
func (b *Bus) Stop() error {
	return b.router.Close()
}

// Publish marshals and publishes an event payload under its inferred
// event type.
func (b *Bus) Publish(ctx context.Context, source string, data any) error {
	eventMsg := &EventMessage{
		ID:        ulid.Make().String(),
		Type:      inferEventType(data),
		Timestamp: time.Now(),
		Source:    source,
	}

	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	eventMsg.Data = rawData

	payload, err := json.Marshal(eventMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := b.pubSub.Publish(string(eventMsg.Type), msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe registers a raw message handler for an event type. Handlers
// must be registered before Start. A panicking handler is converted to a
// handler error so it cannot take the router down.
func (b *Bus) Subscribe(eventType EventType, handlerName string, handler func(msg *message.Message) error) {
	b.router.AddNoPublisherHandler(
		handlerName,
		string(eventType),
		b.pubSub,
		func(msg *message.Message) error {
			return panicerr.Safe(func() error {
				return handler(msg)
			})()
		},
	)
}

// SubscribeTyped registers a typed handler for an event type.
func SubscribeTyped[T any](b *Bus, eventType EventType, handlerName string, handler Handler[T]) {
	b.Subscribe(eventType, handlerName, func(msg *message.Message) error {
		var eventMsg EventMessage
		if err := json.Unmarshal(msg.Payload, &eventMsg); err != nil {
			return fmt.Errorf("failed to unmarshal event message: %w", err)
		}
		ev, err := FromMessage[T](&eventMsg)
		if err != nil {
			return fmt.Errorf("failed to convert message to event: %w", err)
		}
		return handler(msg.Context(), ev)
	})
}
