package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics counts booking and inventory outcomes
type BusinessMetrics struct {
	bookingsCreated    metric.Int64Counter
	bookingsConfirmed  metric.Int64Counter
	insufficientStock  metric.Int64Counter
	unitsRestored      metric.Int64Counter
	restorationsFailed metric.Int64Counter
	inventoryAlerts    metric.Int64Counter
}

// NewBusinessMetrics registers the instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewBusinessMetrics: meter cannot be nil")
	}

	m := &BusinessMetrics{}
	var err error
	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		return c
	}

	m.bookingsCreated = counter("booking.created", "Bookings created", "{booking}")
	m.bookingsConfirmed = counter("booking.confirmed", "Bookings moved into a stock-reserving status", "{booking}")
	m.insufficientStock = counter("inventory.insufficient_stock", "Reservations rejected for lack of stock", "{request}")
	m.unitsRestored = counter("inventory.units_restored", "Units returned to stock by cancellations and deletions", "{unit}")
	m.restorationsFailed = counter("inventory.restoration_failed", "Deletions that could not restore stock", "{booking}")
	m.inventoryAlerts = counter("inventory.alerts", "Inventory alerts raised", "{alert}")
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordBookingCreated counts a new booking
func (m *BusinessMetrics) RecordBookingCreated(ctx context.Context) {
	m.bookingsCreated.Add(ctx, 1)
}

// RecordBookingConfirmed counts a booking whose stock was reserved
func (m *BusinessMetrics) RecordBookingConfirmed(ctx context.Context) {
	m.bookingsConfirmed.Add(ctx, 1)
}

// RecordInsufficientStock counts a rejected reservation
func (m *BusinessMetrics) RecordInsufficientStock(ctx context.Context, variantID uuid.UUID) {
	m.insufficientStock.Add(ctx, 1, metric.WithAttributes(attribute.String("variant_id", variantID.String())))
}

// RecordStockRestored counts restored units
func (m *BusinessMetrics) RecordStockRestored(ctx context.Context, units int64) {
	if units > 0 {
		m.unitsRestored.Add(ctx, units)
	}
}

// RecordRestorationFailed counts a deletion that left stock unrestored
func (m *BusinessMetrics) RecordRestorationFailed(ctx context.Context) {
	m.restorationsFailed.Add(ctx, 1)
}

// RecordInventoryAlert counts an alert of the given kind
func (m *BusinessMetrics) RecordInventoryAlert(ctx context.Context, kind string) {
	m.inventoryAlerts.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// ObserveRelay exports the broker relay's delivery outcomes. snapshot is read
// on every collection and must return monotonically growing totals.
func ObserveRelay(meter metric.Meter, snapshot func() (processed, duplicate, failed int64)) error {
	if meter == nil {
		return errors.New("ObserveRelay: meter cannot be nil")
	}
	deliveries, err := meter.Int64ObservableCounter("events.relay.deliveries",
		metric.WithDescription("Events handed to the broker relay, by outcome"),
		metric.WithUnit("{event}"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		processed, duplicate, failed := snapshot()
		o.ObserveInt64(deliveries, processed, metric.WithAttributes(attribute.String("outcome", "processed")))
		o.ObserveInt64(deliveries, duplicate, metric.WithAttributes(attribute.String("outcome", "duplicate")))
		o.ObserveInt64(deliveries, failed, metric.WithAttributes(attribute.String("outcome", "failed")))
		return nil
	}, deliveries)
	return err
}
