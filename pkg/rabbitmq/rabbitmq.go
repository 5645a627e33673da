package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"

	"cafe/internal/events"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
	"go.uber.org/multierr"
)

// Client holds the RabbitMQ connection and channel. Events are published to a
// topic exchange with the event name as routing key.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ and declares the events exchange.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to open channel")
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrapf(err, "failed to declare exchange %s", cfg.Exchange)
	}

	log.WithField("exchange", cfg.Exchange).Info("RabbitMQ client connected")

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var err error
	if c.channel != nil {
		err = multierr.Append(err, errors.Wrap(c.channel.Close(), "failed to close channel"))
	}
	if c.conn != nil {
		err = multierr.Append(err, errors.Wrap(c.conn.Close(), "failed to close connection"))
	}
	return err
}

func publishing(e events.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, errors.Wrapf(err, "failed to encode %s event", e.Name)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Type:         e.Name,
		Timestamp:    e.OccurredAt,
		Body:         body,
	}, nil
}

// Publish implements events.Publisher.
func (c *Client) Publish(_ context.Context, e events.Event) error {
	msg, err := publishing(e)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	err = c.channel.Publish(
		c.exchange, // exchange
		e.Name,     // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
	return errors.Wrapf(err, "failed to publish %s event", e.Name)
}

func decode(d amqp.Delivery) (events.Event, error) {
	var e events.Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		return e, errors.Wrapf(err, "failed to decode message %d", d.DeliveryTag)
	}
	return e, nil
}

// Consume binds a private queue to the exchange and hands every event whose
// routing key matches pattern to handler until ctx is done. A failing handler
// gets the message requeued once.
func (c *Client) Consume(ctx context.Context, pattern string, handler func(events.Event) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	queue, err := c.channel.QueueDeclare(
		"",    // name: let the broker pick one
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return errors.Wrap(err, "failed to declare queue for consuming")
	}
	if err := c.channel.QueueBind(queue.Name, pattern, c.exchange, false, nil); err != nil {
		return errors.Wrapf(err, "failed to bind queue to %s", c.exchange)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return errors.Wrap(err, "failed to register consumer")
	}

	log.WithFields(log.Fields{
		"exchange": c.exchange,
		"pattern":  pattern,
	}).Info("Waiting for events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("RabbitMQ delivery channel closed")
			}
			e, err := decode(msg)
			if err == nil {
				err = handler(e)
			}
			if err != nil {
				log.WithError(err).WithField("tag", msg.DeliveryTag).Error("Error processing message")
				if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
					log.WithError(nackErr).Error("Error nacking message")
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.WithError(ackErr).Error("Error acking message")
			}
		}
	}
}
