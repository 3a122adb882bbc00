// Package changefeed publishes the post-mutation projections of touched
// persons to Kafka so live views of a collection can refresh. Records are
// keyed by owner, which keeps one owner's changes ordered within a
// partition. Delivery to browsers is someone else's job.
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"famtree/internal/projection"
	id "famtree/pkg/domain"
	"famtree/pkg/requestcontext"
)

const (
	headerRequestID = "request_id"
	headerEvent     = "event"
	eventChanged    = "persons_changed"
)

// Event is the record value.
type Event struct {
	Owner      string                  `json:"owner"`
	OccurredAt time.Time               `json:"occurredAt"`
	Changed    []projection.PersonView `json:"changed"`
	Removed    []string                `json:"removed"`
}

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Publisher struct {
	client producer
	topic  string
	logger *slog.Logger
}

func NewPublisher(client *kgo.Client, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, topic: topic, logger: logger}
}

// NewClient builds a producer client that waits for all in-sync replicas.
// A record still undelivered after deliveryTimeout fails instead of being
// retried while the brokers stay unreachable.
func NewClient(brokers []string, topic string, deliveryTimeout time.Duration) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.ProduceRequestTimeout(deliveryTimeout),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
	)
}

// EnsureTopic creates the change feed topic unless it already exists.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, topic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return err
	}
	return nil
}

// PublishChanges writes one record describing a committed mutation.
func (p *Publisher) PublishChanges(ctx context.Context, owner id.OwnerRef, changed []projection.PersonView, removed []id.PersonID) error {
	if len(changed) == 0 && len(removed) == 0 {
		return nil
	}
	ev := Event{
		Owner:      owner.String(),
		OccurredAt: requestcontext.Now(ctx),
		Changed:    changed,
		Removed:    make([]string, 0, len(removed)),
	}
	if ev.Changed == nil {
		ev.Changed = []projection.PersonView{}
	}
	for _, r := range removed {
		ev.Removed = append(ev.Removed, r.String())
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(owner.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: headerEvent, Value: []byte(eventChanged)},
		},
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: headerRequestID, Value: []byte(requestID)})
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		if p.logger != nil {
			p.logger.WarnContext(ctx, "failed to publish change feed record",
				"owner", owner.String(),
				"topic", p.topic,
				"error", err,
			)
		}
		return err
	}
	return nil
}

// Nop discards changes. It stands in when no brokers are configured.
type Nop struct{}

func (Nop) PublishChanges(context.Context, id.OwnerRef, []projection.PersonView, []id.PersonID) error {
	return nil
}
