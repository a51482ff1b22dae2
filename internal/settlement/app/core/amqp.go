package core

import (
	"context"

	"wheres-my-tab/internal/settlement/domain/dto"
)

type IEventBus interface {
	Close() error
	Publish(ctx context.Context, event dto.RefreshEvent) error
}
