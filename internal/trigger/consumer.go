package trigger

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/atomic"

	"github.com/eteu-technologies/s3-deployer/internal/message"
)

// Consumer receives deploy triggers one at a time. Deliveries are acked
// manually once the deploy they triggered is over.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	lastErr atomic.Error

	Deliveries <-chan amqp.Delivery
}

// Err returns the error the broker closed the connection with, if any.
func (c *Consumer) Err() error {
	return c.lastErr.Load()
}

func (c *Consumer) Close() (err error) {
	if c.Err() != nil {
		return
	}

	if err = c.channel.Close(); err != nil {
		return
	}
	return c.conn.Close()
}

// Decode parses a delivery body.
func Decode(delivery amqp.Delivery) (trigger message.Trigger, err error) {
	if err = json.Unmarshal(delivery.Body, &trigger); err != nil {
		err = fmt.Errorf("unable to parse trigger: %w", err)
		return
	}
	if trigger.Environment == "" {
		err = fmt.Errorf("trigger has no environment")
		return
	}
	return
}

func Dial(amqpURL, amqpQueue string) (consumer *Consumer, err error) {
	c := &Consumer{}

	if c.conn, err = amqp.Dial(amqpURL); err != nil {
		err = fmt.Errorf("failed to connect to amqp broker: %w", err)
		return
	}
	closed := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if aerr := <-closed; aerr != nil {
			c.lastErr.Store(aerr)
		}
	}()

	if c.channel, err = c.conn.Channel(); err != nil {
		err = fmt.Errorf("failed to open channel: %w", err)
		return
	}

	if c.queue, err = declareQueue(c.channel, amqpQueue); err != nil {
		err = fmt.Errorf("failed to declare a queue: %w", err)
		return
	}

	if err = c.channel.Qos(1, 0, false); err != nil {
		err = fmt.Errorf("failed to configure channel qos: %w", err)
		return
	}

	if c.Deliveries, err = c.channel.Consume(c.queue.Name, "", false, false, false, false, nil); err != nil {
		err = fmt.Errorf("failed to setup consumer: %w", err)
		return
	}

	consumer = c
	return
}
