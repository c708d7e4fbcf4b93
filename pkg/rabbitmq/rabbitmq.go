package rabbitmq

import (
	"errors"

	"github.com/streadway/amqp"
)

// NewRabbitMQConn initializes a new RabbitMQ connection.
func NewRabbitMQConn(url string) (*amqp.Connection, error) {
	if url == "" {
		return nil, errors.New("rabbitmq: url is empty")
	}
	return amqp.Dial(url)
}
