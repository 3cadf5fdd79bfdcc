package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"transcribe-api/config"
)

type Publisher interface {
	Publish(ctx context.Context, message any) error
}

type publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	topology Topology
}

// NewPublisher opens a channel and declares the topology so messages published before
// any consumer starts are not dropped.
func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ, topology Topology) (Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := declare(ch, cfg, topology); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &publisher{ch: ch, topology: topology}, nil
}

func (p *publisher) Publish(ctx context.Context, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.topology.Exchange, p.topology.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         body,
	})
}
