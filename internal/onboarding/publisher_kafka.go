package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
)

// RecordPublisher writes keyed records to a log.
type RecordPublisher interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// KafkaEventProvider decorates a Provider so that process events are also
// published to a topic keyed by process id.
type KafkaEventProvider struct {
	Provider
	publisher RecordPublisher
}

func NewKafkaEventProvider(inner Provider, publisher RecordPublisher) *KafkaEventProvider {
	return &KafkaEventProvider{Provider: inner, publisher: publisher}
}

// EventTypeHeader is the record header carrying the event type.
const EventTypeHeader = "event-type"

// ProcessEvent publishes the event, then forwards it to the wrapped provider.
func (p *KafkaEventProvider) ProcessEvent(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode process event: %w", err)
	}
	headers := map[string]string{EventTypeHeader: string(event.Type)}
	if err := p.publisher.Publish(ctx, event.ProcessID.String(), value, headers); err != nil {
		return fmt.Errorf("publish process event: %w", err)
	}
	return p.Provider.ProcessEvent(ctx, event)
}
