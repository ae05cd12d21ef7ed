package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"persacc/internal/config"
)

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
	maxAttempts    = 3
)

// errChannelClosed is returned when a publish finds no usable channel.
var errChannelClosed = errors.New("amqp channel is closed")

// AMQPPublisher publishes events to a durable direct exchange. The queue is
// bound with its own name as routing key.
type AMQPPublisher struct {
	url          string
	exchangeName string
	queueName    string
	log          *zap.SugaredLogger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// NewAMQPPublisher dials the broker and declares the exchange and queue.
func NewAMQPPublisher(cfg config.AMQPConfig, log *zap.SugaredLogger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		url:          cfg.URL,
		exchangeName: cfg.Exchange,
		queueName:    cfg.Queue,
		log:          log,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPublisher returns an AMQP publisher when a broker is configured and a
// NoopPublisher otherwise.
func NewPublisher(cfg config.AMQPConfig, log *zap.SugaredLogger) (Publisher, error) {
	if !cfg.Enabled() {
		return NoopPublisher{}, nil
	}
	return NewAMQPPublisher(cfg, log)
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp091.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	p.conn = conn
	p.channel = channel

	if err := p.setup(); err != nil {
		p.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = p.channel.QueueBind(
		p.queueName,    // queue name
		p.queueName,    // routing key
		p.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishMonthClosed publishes msg as a persistent JSON message. Connection
// failures trigger a reconnect with exponential backoff.
func (p *AMQPPublisher) PublishMonthClosed(ctx context.Context, msg *MonthClosed) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for attempt := 0; ; attempt++ {
		err = p.publishOnce(ctx, body)
		if err == nil {
			p.log.Infow("Published month closed message",
				"fiscal_month", msg.FiscalMonth,
				"exchange", p.exchangeName,
				"queue", p.queueName,
			)
			return nil
		}
		if !isConnectionError(err) || attempt+1 >= maxAttempts {
			return err
		}

		p.log.Warnw("AMQP connection lost, reconnecting", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}

		p.closeLocked()
		if err := p.connect(); err != nil {
			p.log.Warnw("AMQP reconnect failed", "error", err)
		}
	}
}

func (p *AMQPPublisher) publishOnce(ctx context.Context, body []byte) error {
	if p.channel == nil || p.channel.IsClosed() {
		return fmt.Errorf("publish message: %w", errChannelClosed)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		p.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         MonthClosedType,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// isConnectionError reports whether err means the connection or channel is
// gone, so a reconnect may succeed.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errChannelClosed) || errors.Is(err, amqp091.ErrClosed) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var amqpErr *amqp091.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Code == amqp091.ChannelError || amqpErr.Code == amqp091.ConnectionForced
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
