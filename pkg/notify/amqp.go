package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Event is the message body published for every notification.
type Event struct {
	ID         string                  `json:"id"`
	UserID     string                  `json:"user_id"`
	Kind       models.NotificationKind `json:"kind"`
	Payload    json.RawMessage         `json:"payload"`
	OccurredAt time.Time               `json:"occurred_at"`
}

type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes events to a durable topic exchange, routed by kind.
type AMQPNotifier struct {
	conn     *amqp.Connection
	exchange string
	log      *zap.Logger

	mu sync.Mutex
	ch publisher
	// reopen replaces a channel the broker closed after a failed publish
	reopen func() (publisher, error)
}

// DialAMQP connects to the broker with exponential backoff and declares the
// exchange.
func DialAMQP(ctx context.Context, url, exchange string, log *zap.Logger) (*AMQPNotifier, error) {
	log = log.Named("notify.amqp")
	log.Info("connecting to rabbitmq")

	var conn *amqp.Connection
	wait := time.Second
	for attempt := 1; ; attempt++ {
		var err error
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		if attempt == 6 {
			return nil, fmt.Errorf("dial amqp: %w", err)
		}
		log.Warn("rabbitmq not reachable, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	log.Info("connected to rabbitmq")

	n := &AMQPNotifier{conn: conn, exchange: exchange, log: log}
	n.reopen = n.openChannel
	ch, err := n.openChannel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	n.ch = ch
	return n, nil
}

func (n *AMQPNotifier) openChannel() (publisher, error) {
	ch, err := n.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		n.exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", n.exchange, err)
	}
	return ch, nil
}

func (n *AMQPNotifier) Notify(_ context.Context, userID string, kind models.NotificationKind, payload interface{}) {
	body, err := encodePayload(payload)
	if err != nil {
		n.log.Error("failed to encode event payload", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	event := Event{
		ID:         uuid.New().String(),
		UserID:     userID,
		Kind:       kind,
		Payload:    body,
		OccurredAt: time.Now().UTC(),
	}
	msg, err := json.Marshal(event)
	if err != nil {
		n.log.Error("failed to encode event", zap.String("kind", string(kind)), zap.Error(err))
		return
	}

	if err := n.publish(string(kind), amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Body:         msg,
	}); err != nil {
		n.log.Error("failed to publish event",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

func (n *AMQPNotifier) publish(key string, msg amqp.Publishing) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil {
		err := n.ch.Publish(n.exchange, key, false, false, msg)
		if err == nil {
			return nil
		}
		n.log.Warn("publish failed, reopening channel", zap.Error(err))
		_ = n.ch.Close()
		n.ch = nil
	}

	ch, err := n.reopen()
	if err != nil {
		return err
	}
	n.ch = ch
	return n.ch.Publish(n.exchange, key, false, false, msg)
}

// Close closes the channel and the connection.
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var err error
	if n.ch != nil {
		err = multierr.Append(err, n.ch.Close())
		n.ch = nil
	}
	if n.conn != nil {
		err = multierr.Append(err, n.conn.Close())
		n.conn = nil
	}
	return err
}
