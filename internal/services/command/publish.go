package command

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultPublishBatchSize bounds one drain pass when the caller configures none.
const DefaultPublishBatchSize = 100

// PublisherService implements C7: it drains unpublished outbox rows and
// republishes them to the broker, marking each published only once its
// broker write has succeeded, so a crash mid-batch leaves the unsent
// remainder for the next pass instead of losing it.
type PublisherService struct {
	UC *UseCase
}

// PublishResult tallies one drain pass, for logging.
type PublishResult struct {
	Drained   int
	Published int
}

// wireEvent is an outbox event's broker body: the full row, so consumers
// can recover entity linkage and actor attribution without a callback to
// the core.
type wireEvent struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	EntityType    string `json:"entity_type"`
	EntityID      string `json:"entity_id"`
	CorrelationID string `json:"correlation_id"`
	ActorType     string `json:"actor_type"`
	ActorID       string `json:"actor_id"`
	SchemaVersion int    `json:"schema_version"`
	PayloadJSON   string `json:"payload_json,omitempty"`
}

// Publish drains up to batchSize unpublished events, publishes each under
// a routing key equal to its event name, and marks published only the ids
// that were actually written to the broker — a publish failure partway
// through the batch still persists the ids that succeeded before it.
func (s *PublisherService) Publish(ctx context.Context, batchSize int) (PublishResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultPublishBatchSize
	}

	events, err := s.UC.OutboxRepo.Unpublished(ctx, batchSize)
	if err != nil {
		return PublishResult{}, err
	}

	result := PublishResult{Drained: len(events)}

	published := make([]string, 0, len(events))

	var publishErr error

	for _, e := range events {
		body, err := json.Marshal(wireEvent{
			ID:            e.ID,
			Name:          e.Name,
			EntityType:    e.EntityType,
			EntityID:      e.EntityID,
			CorrelationID: e.CorrelationID,
			ActorType:     string(e.ActorType),
			ActorID:       e.ActorID,
			SchemaVersion: e.SchemaVersion,
			PayloadJSON:   e.PayloadJSON,
		})
		if err != nil {
			publishErr = fmt.Errorf("publisher: marshal event %s: %w", e.ID, err)
			break
		}

		if err := s.UC.Broker.Publish(ctx, e.Name, body); err != nil {
			publishErr = fmt.Errorf("publisher: publish event %s: %w", e.ID, err)
			break
		}

		published = append(published, e.ID)
	}

	if len(published) > 0 {
		if err := s.UC.OutboxRepo.MarkPublished(ctx, published); err != nil {
			return result, err
		}

		result.Published = len(published)
	}

	return result, publishErr
}
