package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func newTracedDB(t *testing.T, cfg DBTracingConfig, log *zap.Logger) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))

	recorder := tracetest.NewSpanRecorder()
	cfg.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, InstrumentDB(db, cfg, log))
	return db, recorder
}

func TestInstrumentDB_SpanPerStatement(t *testing.T) {
	db, recorder := newTracedDB(t, DBTracingConfig{DBName: "servicebook"}, nil)
	ctx := context.Background()

	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
	var got []widget
	require.NoError(t, db.WithContext(ctx).Where("name = ?", "a").Find(&got).Error)

	spans := recorder.Ended()
	require.GreaterOrEqual(t, len(spans), 2)
	for _, s := range spans {
		for _, kv := range s.Attributes() {
			if kv.Key == "db.statement" {
				assert.NotContains(t, kv.Value.AsString(), "'a'", "variables are hidden by default")
			}
		}
	}
}

func TestEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, span := tracer.Start(context.Background(), "ok")
	EndSpan(span, nil)
	_, span = tracer.Start(context.Background(), "failed")
	EndSpan(span, assert.AnError)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "Unset", ended[0].Status().Code.String())
	assert.Equal(t, "Error", ended[1].Status().Code.String())
	assert.Len(t, ended[1].Events(), 1)
}
