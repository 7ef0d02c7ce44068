// Package mrabbitmq manages the RabbitMQ connection and channel used by
// the outbox publisher, grounded on the teacher's common/mrabbitmq.
package mrabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/mlog"
)

// Connection lazily dials AMQP and opens a channel on first GetChannel call.
type Connection struct {
	URI      string
	Exchange string
	Logger   mlog.Logger

	mu        sync.Mutex
	connected bool
	conn      *amqp.Connection
	channel   *amqp.Channel
}

// Connect dials the broker, opens a channel, and declares the outbox
// exchange as a durable topic exchange.
func (c *Connection) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	conn, err := amqp.Dial(c.URI)
	if err != nil {
		return fmt.Errorf("mrabbitmq: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("mrabbitmq: channel: %w", err)
	}

	if err := ch.ExchangeDeclare(c.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return fmt.Errorf("mrabbitmq: exchange declare: %w", err)
	}

	c.conn = conn
	c.channel = ch
	c.connected = true

	if c.Logger != nil {
		c.Logger.Infof("mrabbitmq: connected, exchange=%s", c.Exchange)
	}

	return nil
}

// GetChannel connects lazily on first use and returns the channel.
func (c *Connection) GetChannel() (*amqp.Channel, error) {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return c.channel, nil
}

// Publish publishes body to the declared exchange under routingKey, for
// the outbox publisher's drain loop. It connects lazily if not already
// connected, mirroring GetChannel.
func (c *Connection) Publish(ctx context.Context, routingKey string, body []byte) error {
	ch, err := c.GetChannel()
	if err != nil {
		return fmt.Errorf("mrabbitmq: publish: %w", err)
	}

	err = ch.PublishWithContext(ctx, c.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("mrabbitmq: publish: %w", err)
	}

	return nil
}

// Close tears down the channel and connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		_ = c.channel.Close()
	}

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
