package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cafe/internal/events"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

var (
	ErrBufferFull = errors.New("kafka producer buffer is full")
	ErrClosed     = errors.New("kafka producer is closed")
)

const writeTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer exports events to a Kafka topic. Publish only queues the message;
// a single goroutine writes the queue in order and logs failures. Messages
// are keyed by order id so one order's events stay on one partition.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	closeMu sync.Once
}

// NewProducer creates a producer for topic with room for buf queued messages.
func NewProducer(brokers []string, topic string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	p := &Producer{
		w:     w,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Producer) loop() {
	defer close(p.done)
	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			log.WithError(err).WithField("key", string(m.Key)).Error("Failed to write event to kafka")
		}
		cancel()
	}
}

// Publish implements events.Publisher. It never blocks.
func (p *Producer) Publish(_ context.Context, e events.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "encode %s event", e.Name)
	}
	key := e.OrderID
	if key == "" {
		key = e.Name
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    e.OccurredAt,
		Headers: []kafka.Header{{Key: "event", Value: []byte(e.Name)}},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close flushes queued messages and closes the writer. It is safe to call
// more than once.
func (p *Producer) Close() error {
	var err error
	p.closeMu.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()

		<-p.done
		err = errors.Wrap(p.w.Close(), "close kafka writer")
	})
	return err
}
