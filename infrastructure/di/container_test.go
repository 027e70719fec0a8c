package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"flowcanvas/application/services"
	"flowcanvas/domain/palette"
	"flowcanvas/infrastructure/config"
	"flowcanvas/infrastructure/persistence"
	"flowcanvas/infrastructure/persistence/memory"
)

const paletteYAML = `
palette:
  - kind: task
    label: Step
  - kind: approval
`

func TestInitializeContainer(t *testing.T) {
	cfg := config.Defaults()
	cfg.PaletteFile = filepath.Join(t.TempDir(), "palette.yaml")
	cfg.WatchPalette = true
	require.NoError(t, os.WriteFile(cfg.PaletteFile, []byte(paletteYAML), 0o644))

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, container.Service)
	require.NotNil(t, container.Metrics)

	items := container.Service.Palette(context.Background())
	require.Len(t, items, 2)
	assert.Equal(t, "Step", items[0].Label)

	_, err = container.Service.CreateCanvas(context.Background(), services.CreateCanvasInput{ID: "c1"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/canvases/c1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProvideLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "debug"
	logger, err := ProvideLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.LogLevel = "chatty"
	_, err = ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideWorkflowSaver(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := config.Defaults()

	_, ok := ProvideWorkflowSaver(cfg, nil, logger).(*memory.WorkflowSaver)
	assert.True(t, ok)

	cfg.Saver = config.SaverDynamoDB
	_, ok = ProvideWorkflowSaver(cfg, nil, logger).(*persistence.CircuitBreakerSaver)
	assert.True(t, ok)
}

func TestProvideOptionalComponents(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := config.Defaults()

	assert.Nil(t, ProvideEventPublisher(cfg, nil, logger))

	validator, err := ProvideJWTValidator(cfg)
	require.NoError(t, err)
	assert.Nil(t, validator)

	cfg.JWTSecret = "secret"
	validator, err = ProvideJWTValidator(cfg)
	require.NoError(t, err)
	assert.NotNil(t, validator)

	cfg.EnableMetrics = false
	assert.Nil(t, ProvideMetrics(cfg))

	source, cleanup, err := ProvidePaletteSource(config.Defaults(), logger)
	require.NoError(t, err)
	defer cleanup()
	_, ok := source.(*palette.Registry)
	assert.True(t, ok)

	cfg.PaletteFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = ProvidePaletteSource(cfg, logger)
	assert.Error(t, err)
}
