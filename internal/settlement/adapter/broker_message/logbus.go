package brokermessage

import (
	"context"

	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/xpkg/logger"
)

// LogBus writes refresh events to the log. It stands in for RabbitMQ when no
// broker is configured.
type LogBus struct {
	mylog logger.Logger
}

func NewLogBus(mylog logger.Logger) *LogBus {
	return &LogBus{mylog: mylog}
}

func (b *LogBus) Publish(_ context.Context, event dto.RefreshEvent) error {
	b.mylog.Action("refresh_event").Info("UI refresh",
		"event", event.Event,
		"session_id", event.SessionID,
		"table_id", event.TableID,
	)
	return nil
}

func (b *LogBus) Close() error {
	return nil
}
