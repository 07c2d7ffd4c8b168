package events

import (
	"context"
	"encoding/json"
	"time"

	"bunkhouse/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const NotificationsQueue = "bunkhouse.notifications"

type publishChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type dialFunc func(url string) (publishChannel, func(), error)

// AMQPPublisher delivers notifications to a durable RabbitMQ queue. A
// connection is opened per publish; notification volume is a handful of
// messages per hour.
type AMQPPublisher struct {
	url   string
	queue string
	dial  dialFunc
	log   logger.Logger
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{
		url:   url,
		queue: NotificationsQueue,
		dial:  dialAMQP,
		log:   logger.New("AMQPPublisher"),
	}
}

func dialAMQP(url string) (publishChannel, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return ch, func() {
		_ = ch.Close()
		_ = conn.Close()
	}, nil
}

func (p *AMQPPublisher) Notify(ctx context.Context, notification Notification) error {
	log := p.log.Function("Notify").TraceFromContext(ctx)

	event := NewEvent(Channel(p.queue), notification)
	body, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal notification", err, "type", notification.Type)
	}

	ch, closeFn, err := p.dial(p.url)
	if err != nil {
		return log.Err("failed to connect to broker", err)
	}
	defer closeFn()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return log.Err("failed to declare queue", err, "queue", p.queue)
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(notification.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return log.Err("failed to publish notification", err, "queue", p.queue)
	}

	return nil
}
