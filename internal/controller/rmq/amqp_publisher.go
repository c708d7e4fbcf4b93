package rmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"voice_conversion/config"
	"voice_conversion/entity"
	"voice_conversion/pkg/logger"
	"voice_conversion/pkg/rabbitmq"
)

type publishChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EventPublisher sends conversion events to the configured exchange,
// routed by event type.
type EventPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	amqpChan publishChannel
	exchange string
	l        logger.Interface
}

var _ entity.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher dials RabbitMQ and declares the exchange.
func NewEventPublisher(cfg config.RMQ, l logger.Interface) (*EventPublisher, error) {
	mqConn, err := rabbitmq.NewRabbitMQConn(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq.NewRabbitMQConn")
	}
	amqpChan, err := mqConn.Channel()
	if err != nil {
		_ = mqConn.Close()
		return nil, errors.Wrap(err, "amqpConn.Channel")
	}

	p, err := newEventPublisher(amqpChan, cfg.Exchange, l)
	if err != nil {
		_ = mqConn.Close()
		return nil, err
	}
	p.conn = mqConn
	return p, nil
}

func newEventPublisher(ch publishChannel, exchange string, l logger.Interface) (*EventPublisher, error) {
	l.Info("Declaring exchange: %s", exchange)
	err := ch.ExchangeDeclare(
		exchange,
		exchangeKind,
		exchangeDurable,
		exchangeAutoDelete,
		exchangeInternal,
		exchangeNoWait,
		nil,
	)
	if err != nil {
		return nil, errors.Wrap(err, "Error ch.ExchangeDeclare")
	}

	return &EventPublisher{amqpChan: ch, exchange: exchange, l: l}, nil
}

// PublishEvent -.
func (p *EventPublisher) PublishEvent(ctx context.Context, ev entity.ConversionEvent) error {
	_, span := otel.Tracer(traceName).Start(ctx, "PublishEvent")
	defer span.End()

	span.SetAttributes(attribute.String("event.type", string(ev.Type)), attribute.String("session", ev.SessionID))

	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}

	return p.Publish(string(ev.Type), contentTypeJSON, ev.ID, body)
}

// Publish message
func (p *EventPublisher) Publish(key, contentType, messageID string, body []byte) error {
	if messageID == "" {
		messageID = uuid.New().String()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.l.Debug("Publishing message Exchange: " + p.exchange + ", RoutingKey: " + key)

	if err := p.amqpChan.Publish(
		p.exchange,
		key,
		publishMandatory,
		publishImmediate,
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		return errors.Wrap(err, "ch.Publish")
	}

	return nil
}

// Close closes the channel and the connection.
func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.amqpChan.Close(); err != nil {
		p.l.Error("EventPublisher CloseChan: %v", err)
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
