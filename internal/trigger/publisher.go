package trigger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/eteu-technologies/s3-deployer/internal/message"
)

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, true, false, false, false, nil)
}

// Publish sends a deploy trigger to the queue.
func Publish(ctx context.Context, amqpURL, amqpQueue string, trigger message.Trigger) (err error) {
	var data []byte
	if data, err = json.Marshal(&trigger); err != nil {
		err = fmt.Errorf("failed to marshal trigger: %w", err)
		return
	}

	var conn *amqp.Connection
	if conn, err = amqp.Dial(amqpURL); err != nil {
		err = fmt.Errorf("failed to connect to amqp broker: %w", err)
		return
	}
	defer conn.Close()

	var ch *amqp.Channel
	if ch, err = conn.Channel(); err != nil {
		err = fmt.Errorf("failed to open a channel: %w", err)
		return
	}
	defer ch.Close()

	var q amqp.Queue
	if q, err = declareQueue(ch, amqpQueue); err != nil {
		err = fmt.Errorf("failed to declare a queue: %w", err)
		return
	}

	if err = ctx.Err(); err != nil {
		return
	}

	err = ch.Publish("", q.Name, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         data,
	})
	if err != nil {
		err = fmt.Errorf("failed to publish trigger: %w", err)
		return
	}

	return
}
