package brokermessage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/xpkg/config"
	"wheres-my-tab/internal/xpkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnectInterval = 5 * time.Second

// RabbitMQ publishes refresh events to a durable fanout exchange.
type RabbitMQ struct {
	ctx          context.Context
	cfg          *config.RabbitMQ
	conn         *amqp.Connection
	ch           *amqp.Channel
	mylog        logger.Logger
	reconnecting bool
	mu           sync.Mutex
}

// New connects and declares the exchange. ctx bounds background reconnects.
func New(ctx context.Context, rabbitmqCfg *config.RabbitMQ, mylog logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		ctx:   ctx,
		cfg:   rabbitmqCfg,
		mylog: mylog,
	}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.cfg.URL())
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(dto.RefreshExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", dto.RefreshExchange, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

func (r *RabbitMQ) Publish(ctx context.Context, event dto.RefreshEvent) error {
	r.mu.Lock()
	conn, ch := r.conn, r.ch
	r.mu.Unlock()

	if conn == nil || conn.IsClosed() || ch == nil || ch.IsClosed() {
		go r.reconnect(r.ctx)
		return fmt.Errorf("rabbitmq: connection lost")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal refresh event: %w", err)
	}
	return ch.PublishWithContext(ctx, dto.RefreshExchange, event.Event, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   event.Timestamp,
		Body:        body,
	})
}

func (r *RabbitMQ) reconnect(ctx context.Context) {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.reconnecting = false
		r.mu.Unlock()
	}()

	t := time.NewTicker(reconnectInterval)
	defer t.Stop()
	log := r.mylog.Action("rabbitmq_reconnecting")

	for {
		select {
		case <-t.C:
			if err := r.connect(); err != nil {
				log.Warn("rabbitmq failed to reconnect", "error", err.Error())
				continue
			}
			log.Info("rabbitmq reconnected")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

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
