package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const TypeTokensCredited = "tokens.credited"

const queueSize = 256

var ErrQueueFull = errors.New("event queue full")

// TokensCredited is published after a purchase has been committed to the ledger
type TokensCredited struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	UserID      string    `json:"user_id"`
	OrderID     string    `json:"order_id"`
	Provider    string    `json:"provider"`
	Tokens      int64     `json:"tokens"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes domain events to Kafka, keyed by user id, from a background queue
type Publisher struct {
	writer  messageWriter
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan TokensCredited
	wg     sync.WaitGroup
}

// NewPublisher returns nil when no brokers are configured
func NewPublisher(brokers []string, topic string) *Publisher {
	addrs := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 || topic == "" {
		log.Warn().Msg("Kafka brokers not configured, credit events disabled")
		return nil
	}

	return newPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	})
}

func newPublisher(w messageWriter) *Publisher {
	p := &Publisher{
		writer:  w,
		timeout: 5 * time.Second,
		queue:   make(chan TokensCredited, queueSize),
	}

	p.wg.Add(1)
	go p.worker()

	return p
}

func (p *Publisher) worker() {
	defer p.wg.Done()

	for ev := range p.queue {
		if err := p.write(context.Background(), ev); err != nil {
			log.Error().Err(err).
				Str("event_id", ev.ID).
				Str("order_id", ev.OrderID).
				Msg("Failed to publish event")
		}
	}
}

// PublishTokensCredited fills id, type and timestamp when missing and queues the event.
// It never waits for the broker; a full queue returns ErrQueueFull.
func (p *Publisher) PublishTokensCredited(_ context.Context, ev TokensCredited) error {
	if p == nil {
		return nil
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Type = TypeTokensCredited
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("publish %s: publisher closed", ev.Type)
	}

	select {
	case p.queue <- ev:
		return nil
	default:
		return fmt.Errorf("publish %s: %w", ev.Type, ErrQueueFull)
	}
}

func (p *Publisher) write(ctx context.Context, ev TokensCredited) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "event_id", Value: []byte(ev.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", ev.Type, err)
	}
	return nil
}

// Close drains queued events and closes the writer
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.writer.Close()
}
