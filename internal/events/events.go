package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const (
	NOTIFICATIONS_CHANNEL Channel = "bunkhouse.notifications"
)

type Event struct {
	ID           string           `json:"id"`
	Type         NotificationType `json:"type"`
	Channel      Channel          `json:"channel"`
	Notification Notification     `json:"data"`
	Timestamp    time.Time        `json:"timestamp"`
}

type EventHandler func(event Event) error

// EventBus relays notifications through valkey pub/sub so every API instance
// can deliver them to its own websocket clients.
type EventBus struct {
	client   valkey.Client
	logger   logger.Logger
	handlers map[Channel][]EventHandler
	mutex    sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(client valkey.Client) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:   client,
		logger:   logger.New("EventBus"),
		handlers: make(map[Channel][]EventHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func NewEvent(channel Channel, notification Notification) Event {
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now().UTC()
	}

	return Event{
		ID:           uuid.NewString(),
		Type:         notification.Type,
		Channel:      channel,
		Notification: notification,
		Timestamp:    notification.Timestamp,
	}
}

func (eb *EventBus) Notify(ctx context.Context, notification Notification) error {
	return eb.Publish(ctx, NOTIFICATIONS_CHANNEL, NewEvent(NOTIFICATIONS_CHANNEL, notification))
}

func (eb *EventBus) Publish(ctx context.Context, channel Channel, event Event) error {
	log := eb.logger.Function("Publish").TraceFromContext(ctx)

	eventData, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = eb.client.Do(ctx, eb.client.B().Publish().Channel(channel.String()).Message(string(eventData)).Build()).
		Error()
	if err != nil {
		return log.Err("failed to publish event to valkey", err, "channel", channel, "eventID", event.ID)
	}

	log.Debug("Event published", "channel", channel, "eventID", event.ID, "eventType", event.Type)
	return nil
}

// Subscribe registers handler and starts the channel listener on the first
// registration for that channel.
func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) {
	log := eb.logger.Function("Subscribe")

	eb.mutex.Lock()
	first := len(eb.handlers[channel]) == 0
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	eb.mutex.Unlock()

	log.Info("Handler subscribed to channel", "channel", channel)

	if first && eb.client != nil {
		go eb.listenToChannel(channel)
	}
}

func (eb *EventBus) dispatch(channel Channel, event Event) {
	log := eb.logger.Function("dispatch")

	eb.mutex.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[channel]...)
	eb.mutex.RUnlock()

	for i, handler := range handlers {
		if err := handler(event); err != nil {
			log.Er("handler failed", err, "channel", channel, "eventID", event.ID, "handlerIndex", i)
		}
	}
}

func (eb *EventBus) handleMessage(channel Channel, message string) {
	var event Event
	if err := json.Unmarshal([]byte(message), &event); err != nil {
		eb.logger.Function("handleMessage").Er("failed to unmarshal event", err, "channel", channel)
		return
	}
	eb.dispatch(channel, event)
}

func (eb *EventBus) listenToChannel(channel Channel) {
	log := eb.logger.Function("listenToChannel")

	log.Info("Starting to listen to channel", "channel", channel)

	for {
		err := eb.client.Receive(
			eb.ctx,
			eb.client.B().Subscribe().Channel(channel.String()).Build(),
			func(msg valkey.PubSubMessage) {
				eb.handleMessage(channel, msg.Message)
			},
		)
		if eb.ctx.Err() != nil {
			return
		}
		log.Er("subscription ended, retrying", err, "channel", channel)

		select {
		case <-eb.ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (eb *EventBus) Close() error {
	eb.cancel()
	eb.logger.Function("Close").Info("EventBus closed")
	return nil
}
