package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-service/internal/models"
	"catalog-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing catalog events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishProductNormalized publishes ProductNormalized event
func (ep *EventPublisher) PublishProductNormalized(ctx context.Context, event *models.ProductNormalizedEvent) error {
	return ep.producer.PublishEvent(ctx, productKey(event.ProductID), event)
}

func productKey(id int64) string {
	return fmt.Sprintf("product-%d", id)
}

// EventHandler handles incoming events
type EventHandler struct {
	onProductImported func(context.Context, *models.ProductImportedEvent) error
	onStockUpdated    func(context.Context, *models.StockUpdatedEvent) error
	onProductDeleted  func(context.Context, *models.ProductDeletedEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnProductImported registers a handler for ProductImported events
func (eh *EventHandler) OnProductImported(handler func(context.Context, *models.ProductImportedEvent) error) {
	eh.onProductImported = handler
}

// OnStockUpdated registers a handler for StockUpdated events
func (eh *EventHandler) OnStockUpdated(handler func(context.Context, *models.StockUpdatedEvent) error) {
	eh.onStockUpdated = handler
}

// OnProductDeleted registers a handler for ProductDeleted events
func (eh *EventHandler) OnProductDeleted(handler func(context.Context, *models.ProductDeletedEvent) error) {
	eh.onProductDeleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeProductImported:
		if eh.onProductImported != nil {
			var event models.ProductImportedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductImported event: %w", err)
			}
			return eh.onProductImported(ctx, &event)
		}

	case models.EventTypeStockUpdated:
		if eh.onStockUpdated != nil {
			var event models.StockUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StockUpdated event: %w", err)
			}
			return eh.onStockUpdated(ctx, &event)
		}

	case models.EventTypeProductDeleted:
		if eh.onProductDeleted != nil {
			var event models.ProductDeletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductDeleted event: %w", err)
			}
			return eh.onProductDeleted(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
