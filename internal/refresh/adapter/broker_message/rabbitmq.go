package brokermessage

import (
	"context"
	"fmt"

	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/xpkg/config"
	"wheres-my-tab/internal/xpkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ binds a private, auto-deleted queue to the refresh exchange so
// every subscriber sees every event.
type RabbitMQ struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	mylog    logger.Logger
	prefetch int
}

func New(rabbitmqCfg *config.RabbitMQ, prefetch int, mylog logger.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(rabbitmqCfg.URL())
	if err != nil {
		return nil, err
	}

	r := &RabbitMQ{conn: conn, mylog: mylog, prefetch: prefetch}
	if err := r.setup(); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) setup() error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	r.ch = ch

	if err := ch.ExchangeDeclare(dto.RefreshExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", dto.RefreshExchange, err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", dto.RefreshExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	r.queue = q.Name

	return ch.Qos(r.prefetch, 0, false)
}

func (r *RabbitMQ) Consume(ctx context.Context, consumerName string) (<-chan amqp.Delivery, error) {
	return r.ch.ConsumeWithContext(ctx, r.queue, consumerName, false, true, false, false, nil)
}

func (r *RabbitMQ) Close() error {
	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
