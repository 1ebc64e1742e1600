package telemetry

import (
	"errors"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig selects the Pyroscope target. CPU, allocation, in-use
// memory and goroutine profiles are always collected.
type ProfilerConfig struct {
	ServerAddress   string
	ApplicationName string
	Tags            map[string]string
}

// Profiler is a running Pyroscope session
type Profiler struct {
	profiler *pyroscope.Profiler
	once     sync.Once
}

// NewProfiler starts continuous profiling
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	if cfg.ServerAddress == "" {
		return nil, errors.New("profiler server address is required")
	}
	if cfg.ApplicationName == "" {
		return nil, errors.New("profiler application name is required")
	}

	tags := map[string]string{}
	for k, v := range cfg.Tags {
		tags[k] = v
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		tags["hostname"] = host
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
	)
	return &Profiler{profiler: p}, nil
}

// Stop flushes and stops profiling. Calling it twice is safe.
func (p *Profiler) Stop() error {
	var err error
	p.once.Do(func() { err = p.profiler.Stop() })
	return err
}

type pyroscopeLogger struct{ *zap.SugaredLogger }

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.SugaredLogger.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.SugaredLogger.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.SugaredLogger.Errorf(format, args...) }
