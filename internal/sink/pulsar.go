package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"

	"pump-listener/internal/domain"
	"pump-listener/internal/idhash"
)

// Producer is the subset of pulsar.Producer used by the Pulsar sink.
type Producer interface {
	Send(ctx context.Context, msg *pulsar.ProducerMessage) (pulsar.MessageID, error)
	Close()
}

// PulsarOptions configures the Pulsar sink.
type PulsarOptions struct {
	URL   string
	Topic string
	Name  string
}

// PulsarMessage is the JSON payload published per event.
type PulsarMessage struct {
	EventID    string                    `json:"eventId"`
	ReceivedAt int64                     `json:"receivedAt"`
	Event      domain.TokenCreationEvent `json:"event"`
}

// Pulsar forwards events to a Pulsar topic keyed by mint.
type Pulsar struct {
	client   pulsar.Client
	producer Producer
	now      func() time.Time
}

// NewPulsar connects to the broker and creates a producer for opts.Topic.
func NewPulsar(opts PulsarOptions) (*Pulsar, error) {
	if opts.URL == "" || opts.Topic == "" {
		return nil, errors.New("pulsar url and topic are required")
	}

	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: opts.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("create pulsar client: %w", err)
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: opts.Topic,
		Name:  opts.Name,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulsar producer: %w", err)
	}

	return &Pulsar{client: client, producer: producer, now: time.Now}, nil
}

// NewPulsarWithProducer creates a Pulsar sink around an existing producer.
func NewPulsarWithProducer(p Producer, now func() time.Time) *Pulsar {
	if now == nil {
		now = time.Now
	}
	return &Pulsar{producer: p, now: now}
}

// Emit publishes the event and waits for the broker ack.
func (p *Pulsar) Emit(ctx context.Context, e domain.TokenCreationEvent) error {
	if p.producer == nil {
		return errors.New("producer not initialized")
	}

	t := p.now()
	ms := t.UnixMilli()
	payload, err := json.Marshal(PulsarMessage{
		EventID:    idhash.ComputeEventID(e.MintAddress, e.CreatorPublicKey, e.Signature, ms),
		ReceivedAt: ms,
		Event:      e,
	})
	if err != nil {
		return fmt.Errorf("marshal pulsar message: %w", err)
	}

	_, err = p.producer.Send(ctx, &pulsar.ProducerMessage{
		Payload:   payload,
		Key:       e.MintAddress,
		EventTime: t,
		Properties: map[string]string{
			"txType": domain.TxTypeCreate,
		},
	})
	if err != nil {
		return fmt.Errorf("publish to pulsar: %w", err)
	}
	return nil
}

// Close closes the producer and client.
func (p *Pulsar) Close() {
	if p.producer != nil {
		p.producer.Close()
	}
	if p.client != nil {
		p.client.Close()
	}
}
