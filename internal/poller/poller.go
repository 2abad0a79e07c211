// Package poller consumes order events and repairs carts whose clear step
// was lost after an order was committed.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/events"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
)

// Repairer clears a cart that was not modified since orderCreatedAt.
type Repairer interface {
	RepairCart(ctx context.Context, userID string, orderCreatedAt time.Time) (bool, error)
}

const defaultRepairAttempts = 5

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Poller struct {
	repairer       Repairer
	reader         messageReader
	log            *logger.Logger
	backoff        time.Duration
	repairAttempts int
}

func NewPoller(repairer Repairer, log *logger.Logger, topic, groupID string, brokers ...string) *Poller {
	if topic == "" {
		topic = events.DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(repairer, reader, log)
}

func newPoller(repairer Repairer, reader messageReader, log *logger.Logger) *Poller {
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{repairer: repairer, reader: reader, log: log, backoff: time.Second, repairAttempts: defaultRepairAttempts}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.processMessage(ctx); err != nil && ctx.Err() == nil {
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing kafka reader", "error", err)
	}
}

// processMessage commits a message once it is handled. Bad payloads are
// logged and committed. A retryable repair failure is retried in place; the
// message stays uncommitted only when ctx ends first.
func (p *Poller) processMessage(ctx context.Context) error {
	m, err := p.reader.FetchMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Error("error reading message", "error", err)
		}
		return err
	}

	if err := p.handle(ctx, m); err != nil {
		return err
	}
	if err := p.reader.CommitMessages(ctx, m); err != nil {
		p.log.Error("error committing message", "offset", m.Offset, "error", err)
		return err
	}
	return nil
}

func (p *Poller) handle(ctx context.Context, m kafka.Message) error {
	if t := eventType(m); t != "" && t != events.EventTypeOrderPlaced {
		return nil
	}

	var event events.OrderPlaced
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.log.Warn("error parsing message", "offset", m.Offset, "error", err)
		return nil
	}
	if event.UserID == "" {
		p.log.Warn("order event without user_id", "offset", m.Offset, "order_id", event.OrderID)
		return nil
	}

	log := p.log.With("user_id", event.UserID, "order_id", event.OrderID)
	for attempt := 1; ; attempt++ {
		cleared, err := p.repairer.RepairCart(ctx, event.UserID, event.CreatedAt)
		if err == nil {
			if cleared {
				log.Info("cart repaired after order")
			}
			return nil
		}
		if !domain.IsRetryable(err) || attempt >= p.repairAttempts {
			// repair-on-read still clears the cart on the next read
			log.Warn("cart repair abandoned", "attempts", attempt, "error", err)
			return nil
		}
		log.Warn("cart repair failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-time.After(p.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == events.HeaderEventType {
			return string(h.Value)
		}
	}
	return ""
}
