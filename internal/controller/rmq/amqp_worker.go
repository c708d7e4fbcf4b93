package rmq

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"voice_conversion/config"
	"voice_conversion/entity"
	"voice_conversion/pkg/logger"
	"voice_conversion/pkg/rabbitmq"
)

// AMQPWorker consumes conversion events and stores them in the history.
type AMQPWorker struct {
	conn     *amqp.Connection
	amqpChan *amqp.Channel
	cfg      config.RMQ
	l        logger.Interface
	history  entity.ConversionHistory
}

// NewAMQPWorker -.
func NewAMQPWorker(cfg config.RMQ, l logger.Interface, history entity.ConversionHistory) (*AMQPWorker, error) {
	mqConn, err := rabbitmq.NewRabbitMQConn(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq.NewRabbitMQConn")
	}
	amqpChan, err := mqConn.Channel()
	if err != nil {
		_ = mqConn.Close()
		return nil, errors.Wrap(err, "amqpw.amqpConn.Channel")
	}

	return &AMQPWorker{conn: mqConn, amqpChan: amqpChan, cfg: cfg, l: l, history: history}, nil
}

// SetupExchangeAndQueue create exchange and queue
func (amqpw *AMQPWorker) SetupExchangeAndQueue(exchange, queueName string, bindingKeys ...string) error {
	amqpw.l.Info("Declaring exchange: %s", exchange)
	err := amqpw.amqpChan.ExchangeDeclare(
		exchange,
		exchangeKind,
		exchangeDurable,
		exchangeAutoDelete,
		exchangeInternal,
		exchangeNoWait,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Error ch.ExchangeDeclare")
	}

	queue, err := amqpw.amqpChan.QueueDeclare(
		queueName,
		queueDurable,
		queueAutoDelete,
		queueExclusive,
		queueNoWait,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Error ch.QueueDeclare")
	}

	amqpw.l.Info("Declared queue, binding it to exchange: Queue: %v, messageCount: %v, "+
		"consumerCount: %v, exchange: %v, bindingKeys: %v",
		queue.Name,
		queue.Messages,
		queue.Consumers,
		exchange,
		bindingKeys,
	)

	for _, key := range bindingKeys {
		err = amqpw.amqpChan.QueueBind(
			queue.Name,
			key,
			exchange,
			queueNoWait,
			nil,
		)
		if err != nil {
			return errors.Wrap(err, "Error ch.QueueBind")
		}
	}

	return nil
}

// StartConsumer declares the topology and consumes until ctx is done or
// the channel closes.
func (amqpw *AMQPWorker) StartConsumer(ctx context.Context) error {
	err := amqpw.SetupExchangeAndQueue(amqpw.cfg.Exchange, amqpw.cfg.Queue,
		string(entity.EventModelLoaded), string(entity.EventConversionFinished))
	if err != nil {
		return errors.Wrap(err, "SetupExchangeAndQueue")
	}

	if err := amqpw.amqpChan.Qos(prefetchCount, 0, false); err != nil {
		return errors.Wrap(err, "ch.Qos")
	}

	deliveries, err := amqpw.amqpChan.Consume(
		amqpw.cfg.Queue,
		"",
		consumeAutoAck,
		consumeExclusive,
		consumeNoLocal,
		consumeNoWait,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Consume")
	}

	closed := amqpw.amqpChan.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return nil
		case chanErr := <-closed:
			if chanErr == nil {
				return nil
			}
			amqpw.l.Error("ch.NotifyClose: %v", chanErr)
			return chanErr
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			amqpw.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery stores one event. Malformed bodies are dropped, storage
// failures are requeued once.
func (amqpw *AMQPWorker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "consumer")
	defer span.End()

	span.SetAttributes(attribute.String("routing_key", d.RoutingKey))

	var ev entity.ConversionEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		amqpw.l.Error("drop malformed event %s: %v", d.MessageId, err)
		_ = d.Reject(false)
		return
	}

	if err := amqpw.history.Record(ctx, ev); err != nil {
		amqpw.l.Error("record event %s: %v", ev.ID, err)
		span.RecordError(err)
		_ = d.Reject(!d.Redelivered)
		return
	}

	_ = d.Ack(false)
}

// CloseChan Close messages chan
func (amqpw *AMQPWorker) CloseChan() error {
	if err := amqpw.amqpChan.Close(); err != nil {
		amqpw.l.Error("AMQPWorker CloseChan: %v", err)
		return err
	}
	return amqpw.conn.Close()
}
