package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Client publishes domain messages to a durable direct exchange. The queue is bound with its own
// name as routing key.
type Client struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	channel  channel
	exchange string
	queue    string
	clock    func() time.Time
}

func NewClient(url, exchange, queue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	client := &Client{
		conn:     conn,
		ch:       ch,
		channel:  ch,
		exchange: exchange,
		queue:    queue,
		clock:    time.Now,
	}
	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	log.Infof("AMQP publisher ready on exchange %s, queue %s", exchange, queue)
	return client, nil
}

func (c *Client) setup() error {
	err := c.ch.ExchangeDeclare(
		c.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	_, err = c.ch.QueueDeclare(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := c.ch.QueueBind(c.queue, c.queue, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (c *Client) Publish(ctx context.Context, msg Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx,
		c.exchange,
		c.queue,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Type:         msg.Type,
			Timestamp:    c.clock(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	log.WithFields(log.Fields{
		"type":     msg.Type,
		"userId":   msg.UserId,
		"exchange": c.exchange,
	}).Debug("published message")
	return nil
}

func (c *Client) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
