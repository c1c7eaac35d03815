package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"stockgraph/src/infra/kafka"
)

// Producer é o que o publisher precisa do client kafka.
type Producer interface {
	Produce(messages []kafka.Message, topic string) error
}

// DomainEvent é o envelope publicado no tópico de eventos.
type DomainEvent struct {
	EventType  string `json:"event_type"`
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type,omitempty"`
	Payload    any    `json:"payload,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// Publisher publica eventos de domínio em fire-and-forget. Um publisher nil
// (broker não configurado) é seguro: vira no-op.
type Publisher struct {
	logger   *slog.Logger
	producer Producer
	topic    string
}

func NewPublisher(logger *slog.Logger, producer Producer, topic string) *Publisher {
	return &Publisher{logger: logger, producer: producer, topic: topic}
}

// Publish serializa e envia o evento em background; falha é logada, nunca
// propaga para o caminho de escrita.
func (p *Publisher) Publish(eventType string, entityID string, entityType string, payload any) {
	if p == nil || p.producer == nil {
		return
	}

	event := DomainEvent{
		EventType:  eventType,
		EntityID:   entityID,
		EntityType: entityType,
		Payload:    payload,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal domain event", "error", err, "event_type", eventType)
		return
	}

	go func() {
		if err := p.producer.Produce([]kafka.Message{{Key: entityID, Value: eventBytes}}, p.topic); err != nil {
			p.logger.Error("Failed to publish domain event",
				"error", err, "event_type", eventType, "entity_id", entityID)
		}
	}()
}
