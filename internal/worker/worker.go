package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/broker"
	"catalog-service/internal/models"
	"catalog-service/internal/redisclient"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrProductLocked is returned when another worker keeps the product lock past all retries
var ErrProductLocked = errors.New("product is locked by another worker")

// Pipeline runs the catalog pipeline for one product
type Pipeline interface {
	Process(ctx context.Context, productID int64) (*models.Product, error)
	Delete(ctx context.Context, productID int64) error
}

// Locker serializes work on a product and remembers handled events
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (*redisclient.Lock, error)
	ReleaseLock(ctx context.Context, lock *redisclient.Lock) error
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Config tunes lock and deduplication behaviour
type Config struct {
	LockTTL        time.Duration
	LockRetries    int
	LockRetryDelay time.Duration
	IdempotencyTTL time.Duration
}

// DefaultConfig returns the worker defaults
func DefaultConfig() Config {
	return Config{
		LockTTL:        30 * time.Second,
		LockRetries:    5,
		LockRetryDelay: 200 * time.Millisecond,
		IdempotencyTTL: 24 * time.Hour,
	}
}

type messageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// CatalogWorker consumes catalog events and runs the pipeline per product
type CatalogWorker struct {
	consumer     messageSource
	eventHandler *broker.EventHandler
	pipeline     Pipeline
	locker       Locker
	cfg          Config
	logger       *zap.Logger
}

// NewCatalogWorker creates a new catalog worker. locker may be nil.
func NewCatalogWorker(consumer *broker.Consumer, pipeline Pipeline, locker Locker, cfg Config) *CatalogWorker {
	return newCatalogWorker(consumer, pipeline, locker, cfg)
}

func newCatalogWorker(consumer messageSource, pipeline Pipeline, locker Locker, cfg Config) *CatalogWorker {
	w := &CatalogWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		pipeline:     pipeline,
		locker:       locker,
		cfg:          cfg,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnProductImported(w.handleProductImported)
	w.eventHandler.OnStockUpdated(w.handleStockUpdated)
	w.eventHandler.OnProductDeleted(w.handleProductDeleted)

	return w
}

// Start starts the worker
func (w *CatalogWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting catalog worker")
	return w.consumer.StartConsuming(ctx, w.HandleMessage)
}

// Stop stops the worker
func (w *CatalogWorker) Stop() error {
	w.logger.Info("Stopping catalog worker")
	return w.consumer.Close()
}

// HandleMessage routes one consumed message
func (w *CatalogWorker) HandleMessage(ctx context.Context, msg kafka.Message) error {
	return w.eventHandler.HandleMessage(ctx, msg)
}

func (w *CatalogWorker) handleProductImported(ctx context.Context, event *models.ProductImportedEvent) error {
	return w.handle(ctx, event.BaseEvent, event.ProductID, w.process)
}

func (w *CatalogWorker) handleStockUpdated(ctx context.Context, event *models.StockUpdatedEvent) error {
	return w.handle(ctx, event.BaseEvent, event.ProductID, w.process)
}

func (w *CatalogWorker) handleProductDeleted(ctx context.Context, event *models.ProductDeletedEvent) error {
	return w.handle(ctx, event.BaseEvent, event.ProductID, w.pipeline.Delete)
}

func (w *CatalogWorker) process(ctx context.Context, productID int64) error {
	_, err := w.pipeline.Process(ctx, productID)
	return err
}

func (w *CatalogWorker) handle(ctx context.Context, event models.BaseEvent, productID int64, run func(context.Context, int64) error) error {
	ctx, span := util.StartSpan(ctx, "CatalogWorker."+event.EventType)
	defer span.End()

	if w.seen(ctx, event.EventID) {
		util.EventsConsumedTotal.WithLabelValues(event.EventType, "duplicate").Inc()
		w.logger.Info("Skipping duplicate event", zap.String("event_id", event.EventID))
		return nil
	}

	err := w.withProductLock(ctx, productID, func() error {
		return run(ctx, productID)
	})
	if errors.Is(err, store.ErrNotFound) && event.EventType == models.EventTypeProductDeleted {
		err = nil
	}
	if err != nil {
		util.EventsConsumedTotal.WithLabelValues(event.EventType, "failure").Inc()
		return fmt.Errorf("event %s for product %d: %w", event.EventType, productID, err)
	}

	util.EventsConsumedTotal.WithLabelValues(event.EventType, "success").Inc()
	w.remember(ctx, event.EventID)
	return nil
}

func (w *CatalogWorker) withProductLock(ctx context.Context, productID int64, fn func() error) error {
	if w.locker == nil {
		return fn()
	}

	key := redisclient.ProductLockKey(productID)
	var lock *redisclient.Lock
	for attempt := 0; attempt <= w.cfg.LockRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.cfg.LockRetryDelay):
			}
		}

		var err error
		lock, err = w.locker.AcquireLock(ctx, key, w.cfg.LockTTL)
		if err != nil {
			return err
		}
		if lock != nil {
			break
		}
	}
	if lock == nil {
		return fmt.Errorf("%s: %w", key, ErrProductLocked)
	}

	defer func() {
		if err := w.locker.ReleaseLock(ctx, lock); err != nil {
			w.logger.Warn("Failed to release product lock", zap.String("key", key), zap.Error(err))
		}
	}()

	return fn()
}

func (w *CatalogWorker) seen(ctx context.Context, eventID string) bool {
	if w.locker == nil || eventID == "" {
		return false
	}
	exists, err := w.locker.CheckIdempotencyKey(ctx, eventKey(eventID))
	if err != nil {
		w.logger.Warn("Idempotency check failed", zap.String("event_id", eventID), zap.Error(err))
		return false
	}
	return exists
}

func (w *CatalogWorker) remember(ctx context.Context, eventID string) {
	if w.locker == nil || eventID == "" {
		return
	}
	if err := w.locker.SetIdempotencyKey(ctx, eventKey(eventID), "processed", w.cfg.IdempotencyTTL); err != nil {
		w.logger.Warn("Failed to store idempotency key", zap.String("event_id", eventID), zap.Error(err))
	}
}

func eventKey(eventID string) string {
	return "event:" + eventID
}
