package accounting

import (
	"fmt"

	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRegistry builds a REST adapter for every enabled platform of cfg
func NewRegistry(cfg config.SyncConfig, log *zap.Logger) (*integration.Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	registry, err := integration.NewRegistry()
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return registry, nil
	}

	for _, pc := range cfg.Platforms {
		if !pc.Enabled {
			continue
		}
		code, err := integration.NewPlatformCode(pc.Code)
		if err != nil {
			return nil, err
		}
		platform, err := NewRESTPlatform(code, FromPlatformConfig(pc), WithLogger(log.Named(code.String())))
		if err != nil {
			return nil, fmt.Errorf("sync platform %s: %w", code, err)
		}
		if err := registry.Register(platform); err != nil {
			return nil, err
		}
		log.Info("accounting platform registered",
			zap.String("platform", code.String()),
			zap.String("base_url", pc.BaseURL),
		)
	}
	return registry, nil
}
