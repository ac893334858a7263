package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/notesvault/notesvault/internal/store/shared"
	"github.com/notesvault/notesvault/internal/telemetry"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFactory_CreateStore_Memory(t *testing.T) {
	logger := zap.NewNop()
	tel, err := telemetry.NewTelemetry(logger)
	require.NoError(t, err)
	factory := NewFactory(logger, tel)

	config := shared.StoreConfig{
		StoreType:    shared.StoreTypeMemory,
		ExtraDetails: map[string]interface{}{},
	}
	b, err := json.Marshal(config)
	require.NoError(t, err)

	s, err := factory.CreateStore(string(b))
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)
}

func TestFactory_CreateStore_JSONFile(t *testing.T) {
	logger := zap.NewNop()
	factory := NewFactory(logger, nil)

	config := shared.StoreConfig{
		StoreType: shared.StoreTypeJSONFile,
		ExtraDetails: map[string]interface{}{
			"path": filepath.Join(t.TempDir(), "catalog.json"),
		},
	}
	b, err := json.Marshal(config)
	require.NoError(t, err)

	s, err := factory.CreateStore(string(b))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestFactory_CreateStore_JSONFileRequiresPath(t *testing.T) {
	factory := NewFactory(zap.NewNop(), nil)
	_, err := factory.CreateStore(`{"store_type":"jsonfile","extra_details":{}}`)
	require.Error(t, err)
}

func TestFactory_CreateStore_UnsupportedType(t *testing.T) {
	factory := NewFactory(zap.NewNop(), nil)
	_, err := factory.CreateStore(`{"store_type":"cassandra","extra_details":{}}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported store type")
}

func TestFactory_CreateStore_BadJSON(t *testing.T) {
	factory := NewFactory(zap.NewNop(), nil)
	_, err := factory.CreateStore("{not json")
	require.Error(t, err)
}
