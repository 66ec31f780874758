package events

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher produces one record per event, keyed by account so an account's events stay ordered.
type KafkaPublisher struct {
	client  *kgo.Client
	metrics *kprom.Metrics
}

func NewKafkaPublisher(conf KafkaConfig, metrics *kprom.Metrics) (*KafkaPublisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),   // Connects to Kafka brokers
		kgo.DefaultProduceTopic(conf.Topic), // Every event goes to one topic
		kgo.WithHooks(metrics),              // Attaches monitoring hooks
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, metrics: metrics}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	rec := &kgo.Record{
		Key:     []byte(e.AccountID),
		Value:   value,
		Headers: []kgo.RecordHeader{{Key: "type", Value: []byte(e.Type)}},
	}
	return p.client.ProduceSync(ctx, rec).FirstErr()
}

// MetricsHandler serves the client's kprom metrics.
func (p *KafkaPublisher) MetricsHandler() http.Handler { return p.metrics.Handler() }

func (p *KafkaPublisher) Close() { p.client.Close() }
