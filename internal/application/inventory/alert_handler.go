package inventory

import (
	"context"
	"fmt"

	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Alert kinds reported to AlertMetrics
const (
	AlertRestorationFailed = "restoration_failed"
	AlertLowStock          = "low_stock"
)

// AlertMetrics counts inventory alerts by kind
type AlertMetrics interface {
	RecordInventoryAlert(ctx context.Context, kind string)
}

// AlertHandler turns ledger inconsistency and depletion events into operator
// facing warnings once they have been committed.
type AlertHandler struct {
	metrics AlertMetrics
	logger  *zap.Logger
}

// NewAlertHandler creates an AlertHandler. metrics may be nil.
func NewAlertHandler(metrics AlertMetrics, log *zap.Logger) *AlertHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertHandler{metrics: metrics, logger: log}
}

// Name is the idempotency namespace of the handler
func (h *AlertHandler) Name() string { return "inventory-alerts" }

// EventTypes returns the event types this handler is interested in
func (h *AlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockRestorationFailed, inventory.EventTypeLowStock}
}

// Handle logs the alert and counts it
func (h *AlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	log := logger.WithLogger(ctx, h.logger)

	switch e := event.(type) {
	case *inventory.StockRestorationFailedEvent:
		log.Warn("Inconsistency: booking removed without restoring stock",
			zap.String("booking_id", e.BookingID.String()),
			zap.String("variant_id", e.VariantID.String()),
			zap.Int64("quantity", e.Quantity),
			zap.String("reason", e.Reason),
		)
		h.record(ctx, AlertRestorationFailed)
	case *inventory.LowStockEvent:
		log.Warn("Low stock",
			zap.String("variant_id", e.VariantID.String()),
			zap.Int64("remaining", e.Remaining),
			zap.Int64("threshold", e.Threshold),
		)
		h.record(ctx, AlertLowStock)
	default:
		return fmt.Errorf("inventory alert handler cannot handle %s", event.EventType())
	}
	return nil
}

func (h *AlertHandler) record(ctx context.Context, kind string) {
	if h.metrics != nil {
		h.metrics.RecordInventoryAlert(ctx, kind)
	}
}

var _ shared.EventHandler = (*AlertHandler)(nil)
