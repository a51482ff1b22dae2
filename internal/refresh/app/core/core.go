package core

import (
	"context"
	"errors"

	xerrors "wheres-my-tab/internal/xpkg/errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrHelp        = xerrors.ErrHelp
	ErrBrokerUnset = errors.New("rabbitmq host is not configured")
)

const (
	// in seconds for graceful shutdown
	WaitTime = 20

	DefaultWorkers = 4
)

type IRabbitMQ interface {
	Close() error
	Consume(ctx context.Context, consumerName string) (<-chan amqp.Delivery, error)
}
