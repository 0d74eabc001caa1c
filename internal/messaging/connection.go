package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-pos/internal/logger"
)

const (
	// OrdersExchange carries order lifecycle events keyed by event type
	OrdersExchange = "orders_topic"
	// NotificationsQueue receives every order event
	NotificationsQueue = "order_notifications_queue"

	maxConnectRetries = 5
	channelPollPeriod = time.Second
)

// ErrNotConnected is returned by Channel while the broker is unreachable.
// A reconnect is running in the background when it is returned.
var ErrNotConnected = errors.New("rabbitmq connection is not available")

// Connection wraps a RabbitMQ connection with reconnection logic
type Connection struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	reconnecting bool
	logger       *logger.Logger
	url          string

	// ctx is cancelled by Close and stops a pending reconnect
	ctx    context.Context
	cancel context.CancelFunc
}

// New dials RabbitMQ and declares the order events topology
func New(ctx context.Context, url string, log *logger.Logger) (*Connection, error) {
	c := newConnection(url, log)

	conn, channel, err := c.connect(ctx)
	if err != nil {
		c.cancel()
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	c.conn, c.channel = conn, channel

	return c, nil
}

func newConnection(url string, log *logger.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		logger: log,
		url:    url,
		ctx:    ctx,
		cancel: cancel,
	}
}

// connect establishes connection to RabbitMQ with retry logic
func (c *Connection) connect(ctx context.Context) (*amqp091.Connection, *amqp091.Channel, error) {
	var err error

	for i := 0; i < maxConnectRetries; i++ {
		conn, channel, dialErr := c.dial()
		if dialErr == nil {
			return conn, channel, nil
		}
		err = dialErr

		if i < maxConnectRetries-1 {
			waitTime := time.Duration(i+1) * 2 * time.Second
			c.logger.Error("rabbitmq_connection_failed",
				fmt.Sprintf("Failed to connect to RabbitMQ, retrying in %v", waitTime),
				"", err, nil)

			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return nil, nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxConnectRetries, err)
}

func (c *Connection) dial() (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if err := setupTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to set up topology: %w", err)
	}
	return conn, channel, nil
}

// setupTopology declares the exchange and the notifications queue
func setupTopology(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		OrdersExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", OrdersExchange, err)
	}

	_, err = ch.QueueDeclare(
		NotificationsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		amqp091.Table{
			"x-message-ttl": int32(300000),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", NotificationsQueue, err)
	}

	err = ch.QueueBind(
		NotificationsQueue, // queue name
		"order.*",          // routing key
		OrdersExchange,     // exchange
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", NotificationsQueue, err)
	}

	return nil
}

// Channel returns the current channel. It never blocks on the broker: when
// the connection is down it starts a background reconnect and returns
// ErrNotConnected.
func (c *Connection) Channel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isClosed() {
		return c.channel, nil
	}
	if c.ctx.Err() != nil {
		return nil, ErrNotConnected
	}

	c.close()
	if !c.reconnecting {
		c.reconnecting = true
		go c.reconnect()
	}
	return nil, ErrNotConnected
}

// WaitChannel polls Channel until it succeeds or ctx is done
func (c *Connection) WaitChannel(ctx context.Context) (*amqp091.Channel, error) {
	for {
		channel, err := c.Channel()
		if !errors.Is(err, ErrNotConnected) {
			return channel, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(channelPollPeriod):
		}
	}
}

func (c *Connection) reconnect() {
	conn, channel, err := c.connect(c.ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnecting = false

	if err != nil {
		c.logger.Error("rabbitmq_reconnect_failed", "Failed to reconnect to RabbitMQ", "", err, nil)
		return
	}
	if c.ctx.Err() != nil {
		channel.Close()
		conn.Close()
		return
	}
	c.conn, c.channel = conn, channel
	c.logger.Info("rabbitmq_reconnected", "Reconnected to RabbitMQ", "", nil)
}

// Close stops any pending reconnect and closes the channel and the connection
func (c *Connection) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Connection) isClosed() bool {
	return c.conn == nil || c.conn.IsClosed() || c.channel == nil || c.channel.IsClosed()
}
