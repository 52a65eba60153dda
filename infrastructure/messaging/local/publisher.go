// Package local holds the event publisher used when running without AWS
package local

import (
	"context"
	"sync"

	"foodiary/application/ports"
	"foodiary/domain/events"

	"go.uber.org/zap"
)

// Publisher logs events and keeps them in memory
type Publisher struct {
	mu        sync.Mutex
	published []events.DomainEvent
	logger    *zap.Logger
}

// NewPublisher creates an in-process publisher
func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

var _ ports.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

func (p *Publisher) PublishBatch(_ context.Context, evts []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range evts {
		p.logger.Info("event published",
			zap.String("eventType", e.GetEventType()),
			zap.String("aggregateId", e.GetAggregateID()))
	}
	p.published = append(p.published, evts...)
	return nil
}

// Published returns every event seen so far
func (p *Publisher) Published() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.DomainEvent(nil), p.published...)
}
