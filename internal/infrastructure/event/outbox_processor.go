package event

import (
	"context"
	"sync"
	"time"

	"github.com/servicebook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
	// StaleAfter is how long an entry may stay in processing before another
	// poller assumes its owner died and releases it.
	StaleAfter time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
		StaleAfter:       5 * time.Minute,
	}
}

// OutboxProcessor relays committed outbox entries to the event bus
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger
	now        func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	bus shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultOutboxProcessorConfig().BatchSize
	}
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		serializer: serializer,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Start starts the background loops
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.every(ctx, p.config.PollInterval, func(ctx context.Context) { p.ProcessOnce(ctx) })

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.every(ctx, p.config.CleanupInterval, p.cleanup)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop cancels the loops and waits for the current batch to finish
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// ProcessOnce claims one batch of due entries and delivers it. It returns
// the number of entries delivered successfully.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	now := p.now()

	if p.config.StaleAfter > 0 {
		released, err := p.repo.ReleaseStale(ctx, now.Add(-p.config.StaleAfter))
		if err != nil {
			p.logger.Error("failed to release stale outbox entries", zap.Error(err))
		} else if released > 0 {
			p.logger.Warn("released stale outbox entries", zap.Int64("count", released))
		}
	}

	claimed, err := p.repo.ClaimDue(ctx, now, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to claim outbox entries", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, entry := range claimed {
		if p.deliver(ctx, entry) {
			delivered++
		}
	}
	return delivered
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) bool {
	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.bus.Publish(ctx, event)
	}

	if err != nil {
		entry.MarkFailed(err.Error())
		fields := []zap.Field{
			zap.String("event_id", entry.EventID.String()),
			zap.String("event_type", entry.EventType),
			zap.String("aggregate_id", entry.AggregateID.String()),
			zap.Int("retry_count", entry.RetryCount),
			zap.Error(err),
		}
		if entry.IsDead() {
			p.logger.Warn("event moved to dead letter", fields...)
		} else {
			p.logger.Error("event delivery failed", fields...)
		}
		if updateErr := p.repo.Update(ctx, entry); updateErr != nil {
			p.logger.Error("failed to update outbox entry", zap.Error(updateErr))
		}
		return false
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to mark outbox entry as sent",
			zap.String("event_id", entry.EventID.String()),
			zap.Error(err),
		)
		return false
	}
	p.logger.Debug("event delivered",
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
	)
	return true
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := p.now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up outbox entries", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}

// Requeue moves a dead letter entry back to pending
func (p *OutboxProcessor) Requeue(ctx context.Context, entry *shared.OutboxEntry) error {
	if err := entry.ResetForRetry(); err != nil {
		return shared.NewDomainError(shared.CodeInvalidState, err.Error())
	}
	return p.repo.Update(ctx, entry)
}
