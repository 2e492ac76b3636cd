package queue

import (
	"fmt"
	"time"

	"github.com/deepgraph/backend/internal/util"

	"github.com/rabbitmq/amqp091-go"
)

const (
	// GraphQueue receives graph jobs published by the server.
	GraphQueue = "graph_queue"
	// EventsExchange carries job status events, routed by graph.<status>.
	EventsExchange = "pubsub_exchange"

	retryTTL = 10 * time.Second
)

// Init dials RabbitMQ with RABBITMQ_URL, or with RABBITMQ_USER,
// RABBITMQ_PASSWORD, RABBITMQ_HOST and RABBITMQ_PORT when no URL is set.
func Init() (*amqp091.Connection, error) {
	connURL := util.GetEnv("RABBITMQ_URL")
	if connURL == "" {
		connURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/",
			util.GetEnvString("RABBITMQ_USER", "guest"),
			util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
			util.GetEnvString("RABBITMQ_HOST", "localhost"),
			util.GetEnvString("RABBITMQ_PORT", "5672"),
		)
	}

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// declarer is the part of *amqp091.Channel used to declare topology.
type declarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
}

// SetupQueues declares every queue with its dead letter queue (<name>_dlq)
// and a retry queue (<name>_retry) that routes messages back to the queue
// after a delay.
func SetupQueues(ch declarer, queueNames []string) error {
	if err := ch.ExchangeDeclare(EventsExchange, "topic", false, true, false, false, nil); err != nil {
		return fmt.Errorf("ExchangeDeclare failed: %w", err)
	}

	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("QueueDeclare %s failed: %w", name, err)
		}

		dlqName := DeadLetterQueue(name)
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("QueueDeclare %s failed: %w", dlqName, err)
		}

		retryName := RetryQueue(name)
		_, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTL.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("QueueDeclare %s failed: %w", retryName, err)
		}
	}

	return nil
}

func DeadLetterQueue(name string) string { return name + "_dlq" }
func RetryQueue(name string) string      { return name + "_retry" }

// Publisher is the part of *amqp091.Channel used to publish.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// PublishFIFO puts data on the named queue through the default exchange.
func PublishFIFO(ch Publisher, queueName string, data []byte) error {
	return ch.Publish(
		"",
		queueName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// PublishTopic publishes data on the events exchange under topic.
func PublishTopic(ch Publisher, topic string, data []byte) error {
	return ch.Publish(
		EventsExchange,
		topic,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
