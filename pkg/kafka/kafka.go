package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/book-service/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

const BookTopic = "book-events"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
	Topic string   `envconfig:"KAFKA_TOPIC" default:"book-events"`
}

func (cfg Config) Enabled() bool { return len(cfg.Addrs) > 0 }

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Timeout = 5 * time.Second

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type EventType string

const (
	BookCreated EventType = "BOOK_CREATED"
	BookUpdated EventType = "BOOK_UPDATED"
	BookDeleted EventType = "BOOK_DELETED"
)

type BookEvent struct {
	Type      EventType `json:"type"`
	BookID    string    `json:"book_id"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends book events keyed by book id so that events of one book
// keep their order within a partition.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
}

func NewPublisher(producer sarama.SyncProducer, topic string, cb circuit_breaker.CircuitBreaker) *Publisher {
	if topic == "" {
		topic = BookTopic
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
		cb:       cb,
	}
}

func (p *Publisher) Publish(_ context.Context, event BookEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal book event")
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.BookID),
		Value: sarama.ByteEncoder(data),
	}
	send := func() error {
		_, _, err := p.producer.SendMessage(msg)
		return err
	}
	if p.cb != nil {
		err = p.cb.Call(send)
	} else {
		err = send()
	}
	return errors.Wrap(err, "send book event")
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
