package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrProducerClosed = errors.New("producer closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in an inbox drained by a single goroutine, so
// callers never wait on the broker.
type Producer struct {
	w      messageWriter
	inbox  chan kafka.Message
	done   chan struct{}
	logger *zap.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
}

func NewProducer(brokers []string, buf int, logger *zap.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, buf, logger)
}

func newProducer(w messageWriter, buf int, logger *zap.Logger) *Producer {
	if buf < 1 {
		buf = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{
		w:      w,
		inbox:  make(chan kafka.Message, buf),
		done:   make(chan struct{}),
		logger: logger.Named("events"),
	}
}

// Start runs the delivery loop until Close is called or ctx is cancelled.
// Either way, messages already buffered are written before the loop exits.
func (p *Producer) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		defer func() {
			if err := p.w.Close(); err != nil {
				p.logger.Warn("close writer", zap.Error(err))
			}
		}()
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				return
			}
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Warn("write event",
			zap.String("topic", m.Topic),
			zap.ByteString("key", m.Key),
			zap.Error(err),
		)
	}
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-p.done:
		return ErrProducerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, flushes what is buffered and waits for the
// delivery loop to exit.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	started := p.started
	p.mu.Unlock()

	if !started {
		return p.w.Close()
	}
	<-p.done
	return nil
}
