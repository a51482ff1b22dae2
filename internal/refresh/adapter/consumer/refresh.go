package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"wheres-my-tab/internal/refresh/app/core"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/xpkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

type Subscriber struct {
	mb      core.IRabbitMQ
	out     io.Writer
	outMu   sync.Mutex
	workers int
	mylog   logger.Logger
}

func NewSubscriber(mb core.IRabbitMQ, out io.Writer, workers int, mylog logger.Logger) *Subscriber {
	if workers <= 0 {
		workers = core.DefaultWorkers
	}
	return &Subscriber{mb: mb, out: out, workers: workers, mylog: mylog}
}

// Run consumes until ctx ends or the broker closes the stream. At most
// s.workers deliveries are handled at once.
func (s *Subscriber) Run(ctx context.Context) error {
	deliveries, err := s.mb.Consume(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to consume from rabbitmq: %w", err)
	}
	s.mylog.Action("subscriber_started").Info("Listening for refresh events", "workers", s.workers)

	g := &errgroup.Group{}
	g.SetLimit(s.workers)
	defer g.Wait()

	for {
		select {
		case <-ctx.Done():
			s.mylog.Action("work_shutdown").Info("Stopping message consumption due to context cancel")
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			g.Go(func() error {
				s.handle(msg)
				return nil
			})
		}
	}
}

// acker is the part of amqp.Delivery handle needs.
type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (s *Subscriber) handle(msg amqp.Delivery) {
	s.process(msg.Body, msg)
}

func (s *Subscriber) process(body []byte, ack acker) {
	var event dto.RefreshEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.mylog.Action("refresh_decode_failed").Error("Dropping unreadable refresh event", err)
		if err := ack.Nack(false, false); err != nil {
			s.mylog.Action("nack_failed").Error("Failed to nack", err)
		}
		return
	}

	s.mylog.WithGroup("details").With("session_id", event.SessionID, "table_id", event.TableID).
		Action("refresh_received").Info("Received refresh event", "event", event.Event)
	s.outMu.Lock()
	fmt.Fprintf(s.out, "[%s] %s: session %s at table %s\n",
		event.Timestamp.Format("15:04:05"), event.Event, event.SessionID, event.TableID)
	s.outMu.Unlock()

	if err := ack.Ack(false); err != nil {
		s.mylog.Action("ack_failed").Error("Failed to ack", err)
	}
}
