package commands

import (
	"fmt"

	"github.com/systmms/lockbox/internal/config"
	"github.com/systmms/lockbox/internal/keystore"
	"github.com/systmms/lockbox/internal/metafile"
	"github.com/systmms/lockbox/internal/metrics"
	"github.com/systmms/lockbox/internal/registry"
	"github.com/systmms/lockbox/internal/service"
)

// engine bundles the constructed persistence stack for a command run.
type engine struct {
	service *service.SecretService
	file    *metafile.Store
	values  keystore.Store
}

// buildEngine loads configuration and wires the store, registry and
// service together. The secure backend is probed once here.
func buildEngine(cfg *config.Config) (*engine, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}

	values := keystore.New(cfg.StoreOptions(), cfg.Logger)
	file := metafile.NewStore(cfg.Definition.DataDir, cfg.Logger)

	reg, err := registry.New(values, file, cfg.Logger,
		registry.WithMetrics(metrics.NewRecorder()))
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	return &engine{
		service: service.New(reg, cfg.Logger),
		file:    file,
		values:  values,
	}, nil
}

// elide masks a secret value for display.
func elide(value string, show bool) string {
	if show {
		return value
	}
	if value == "" {
		return ""
	}
	return "********"
}
