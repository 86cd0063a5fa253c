package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config holds the connection and stream settings of the preparation queue
type Config struct {
	URL           string
	StreamName    string
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig targets a local server and the ecgprep stream
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		StreamName:    "ecgprep",
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Client publishes preparation output to JetStream and consumes it in writers
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config Config
}

// NewClient connects to NATS and opens a JetStream context
func NewClient(cfg Config) (*Client, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.RetryAttempts),
		nats.ReconnectWait(cfg.RetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Client{
		nc:     nc,
		js:     js,
		config: cfg,
	}, nil
}

// CreateStream creates the JetStream stream for all preparation subjects
func (c *Client) CreateStream(ctx context.Context) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      c.config.StreamName,
		Subjects:  Subjects,
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Publish sends raw bytes to a subject of the stream
func (c *Client) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := c.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishWindowBatch publishes the windows of one record
func (c *Client) PublishWindowBatch(ctx context.Context, msg *WindowBatchMsg) error {
	data, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode window batch: %w", err)
	}
	return c.Publish(ctx, SubjectWindowWrite, data)
}

// PublishEmbeddings publishes a batch of window embeddings
func (c *Client) PublishEmbeddings(ctx context.Context, msg *EmbeddingBatchMsg) error {
	if len(msg.Embeddings) == 0 {
		return nil
	}
	data, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode embeddings: %w", err)
	}
	return c.Publish(ctx, SubjectEmbeddingWrite, data)
}

// WindowBatchHandler stores one decoded window batch
type WindowBatchHandler func(ctx context.Context, batch *WindowBatchMsg) error

// EmbeddingBatchHandler stores one decoded embedding batch
type EmbeddingBatchHandler func(ctx context.Context, batch *EmbeddingBatchMsg) error

// errUndecodable marks messages that no redelivery can fix
var errUndecodable = errors.New("undecodable message")

// ConsumeWindowBatches delivers every window batch on the stream to handler.
// Batches the handler fails to store are redelivered up to MaxDeliver times;
// batches that do not decode are dropped.
func (c *Client) ConsumeWindowBatches(ctx context.Context, consumerName string, handler WindowBatchHandler) (jetstream.ConsumeContext, error) {
	return c.consume(ctx, SubjectWindowWrite, consumerName, func(data []byte) error {
		batch, err := DecodeWindowBatch(data)
		if err != nil {
			return fmt.Errorf("%w: %v", errUndecodable, err)
		}
		return handler(ctx, batch)
	})
}

// ConsumeEmbeddings delivers every embedding batch on the stream to handler
func (c *Client) ConsumeEmbeddings(ctx context.Context, consumerName string, handler EmbeddingBatchHandler) (jetstream.ConsumeContext, error) {
	return c.consume(ctx, SubjectEmbeddingWrite, consumerName, func(data []byte) error {
		batch, err := DecodeEmbeddingBatch(data)
		if err != nil {
			return fmt.Errorf("%w: %v", errUndecodable, err)
		}
		return handler(ctx, batch)
	})
}

// consume creates a durable consumer on subject and acks each message
// whose handler succeeds
func (c *Client) consume(ctx context.Context, subject, consumerName string, handle func([]byte) error) (jetstream.ConsumeContext, error) {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, c.config.StreamName, jetstream.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		settle(msg, handle(msg.Data()))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return consumeCtx, nil
}

// settle acks a handled message, terminates one that cannot be decoded
// and asks for redelivery of any other failure
func settle(msg jetstream.Msg, err error) {
	switch {
	case err == nil:
		msg.Ack()
	case errors.Is(err, errUndecodable):
		msg.Term()
	default:
		msg.Nak()
	}
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.nc != nil {
		c.nc.Close()
	}
}
