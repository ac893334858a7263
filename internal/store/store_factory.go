package store

import (
	"encoding/json"
	"fmt"

	"github.com/notesvault/notesvault/internal/store/jsonfile"
	"github.com/notesvault/notesvault/internal/store/shared"
	"github.com/notesvault/notesvault/internal/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Factory creates catalog stores from a JSON configuration string.
type Factory struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
}

func NewFactory(logger *zap.Logger, tel *telemetry.Telemetry) *Factory {
	return &Factory{
		logger:    logger.Named("factory"),
		telemetry: tel,
	}
}

func (f *Factory) CreateStore(configJSON string) (Store, error) {
	var config shared.StoreConfig
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("failed to parse store configuration JSON: %w", err)
	}

	f.logger.Info("creating catalog store",
		zap.String("store_type", config.StoreType.String()),
		zap.Any("extra_details", config.ExtraDetails))

	if !config.StoreType.IsValid() {
		return nil, fmt.Errorf("unsupported store type: %s", config.StoreType)
	}

	var meter metric.Meter
	if f.telemetry != nil {
		meter = f.telemetry.Meter
	}

	switch config.StoreType {
	case shared.StoreTypeJSONFile:
		path, ok := config.ExtraDetails["path"].(string)
		if !ok || path == "" {
			return nil, fmt.Errorf("path is required for the jsonfile store")
		}
		return jsonfile.NewStore(path, f.logger, meter)
	case shared.StoreTypeMemory:
		f.logger.Info("using in-memory catalog store")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.StoreType)
	}
}
