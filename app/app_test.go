package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vedu111/gorechitee/config"
	"github.com/vedu111/gorechitee/models"
)

const testEmbeddings = `{
  "chunks": [{"content": "Textiles are freely exportable.", "embedding": [0.1, 0.2]}],
  "hsCodesData": {"61091000": {"policy": "Free", "description": "T-shirts of cotton"}}
}`

func writeCorpus(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "embeddings-database.json"), []byte(testEmbeddings), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "item-to-hs-mapping.json"), []byte(`{"T-Shirt":"61091000"}`), 0o644))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud")
	assert.Error(t, err)
}

func TestNewWiresEngineFromLocalStorage(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, "india")
	writeCorpus(t, root, "usa")
	t.Setenv("STORAGE_TYPE", "local")
	t.Setenv("STORAGE_LOCAL_PATH", root)
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Contains(t, a.Registry.Names(), "CANADA")

	result, err := a.Shipments.EvaluateShipment(context.Background(), models.Shipment{
		SourceAddress:      models.Address{Country: "india"},
		DestinationAddress: models.Address{Country: "canada"},
		Boxes:              []models.Box{{Items: []models.Item{{ItemName: "t-shirt"}}}},
	})
	require.NoError(t, err)
	assert.True(t, result.Status)
	assert.Equal(t, "Canadian import compliance check simulated", result.Report[0].ImportNote)
}

func TestNewFailsOnMissingCorpus(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "local")
	t.Setenv("STORAGE_LOCAL_PATH", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
