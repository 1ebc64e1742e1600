package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls database instrumentation
type DBTracingConfig struct {
	DBName string
	// LogFullSQL keeps bound variables in span statements. Development only.
	LogFullSQL bool
	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
}

// InstrumentDB adds a span per statement
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, log *zap.Logger) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if log != nil {
		log.Info("Database tracing enabled", zap.String("db_name", cfg.DBName), zap.Bool("full_sql", cfg.LogFullSQL))
	}
	return nil
}
