package telemetry

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// DefaultProfileTypes are collected when ProfilerConfig.Types is empty.
var DefaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

const defaultContentionRate = 5

// ProfilerConfig configures the Pyroscope agent.
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
	// Grafana Cloud credentials; both or neither.
	BasicAuthUser     string
	BasicAuthPassword string

	Types []pyroscope.ProfileType
	// ContentionRate feeds runtime.SetMutexProfileFraction and
	// runtime.SetBlockProfileRate when mutex or block profiles are requested.
	ContentionRate int
}

// Profiler owns the running Pyroscope agent, if any.
type Profiler struct {
	agent  *pyroscope.Profiler
	logger *zap.Logger
	once   sync.Once
	err    error
}

// NewProfiler starts the agent. A disabled config yields a profiler whose
// Stop does nothing.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, errors.New("profiler needs a server address and an application name")
	}

	types := cfg.Types
	if len(types) == 0 {
		types = DefaultProfileTypes
	}
	rate := cfg.ContentionRate
	if rate <= 0 {
		rate = defaultContentionRate
	}
	if slices.Contains(types, pyroscope.ProfileMutexCount) || slices.Contains(types, pyroscope.ProfileMutexDuration) {
		runtime.SetMutexProfileFraction(rate)
	}
	if slices.Contains(types, pyroscope.ProfileBlockCount) || slices.Contains(types, pyroscope.ProfileBlockDuration) {
		runtime.SetBlockProfileRate(rate)
	}

	agent, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            logger.Named("pyroscope").Sugar(),
		Tags:              hostTags(),
		ProfileTypes:      types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.agent = agent

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

// hostTags labels every profile with the host or pod it came from.
func hostTags() map[string]string {
	tags := make(map[string]string, 2)
	if v := os.Getenv("HOSTNAME"); v != "" {
		tags["hostname"] = v
	}
	if v := os.Getenv("POD_NAME"); v != "" {
		tags["pod"] = v
	}
	return tags
}

func (p *Profiler) Enabled() bool {
	return p.agent != nil
}

// Stop uploads the last profiles and stops the agent. Only the first call
// does any work. The SDK takes no context and relies on its own upload
// timeout.
func (p *Profiler) Stop() error {
	p.once.Do(func() {
		if p.agent == nil {
			return
		}
		if err := p.agent.Stop(); err != nil {
			p.err = fmt.Errorf("failed to stop profiler: %w", err)
			return
		}
		p.logger.Info("Pyroscope profiler stopped")
	})
	return p.err
}
