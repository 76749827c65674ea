package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"DB_URL", "TESSERACT_LANG", "OCR_DPI", "WORKERS", "INBOX_DIRS", "TABLE_END_MARKERS"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "sqlite://attest.db", cfg.Database.DSN)
	assert.Equal(t, "por", cfg.OCR.Lang)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 4, cfg.Ingest.Workers)
	assert.Equal(t, 3*time.Minute, cfg.Ingest.ProcessTimeout)
	assert.Empty(t, cfg.Ingest.InboxDirs)
	assert.Empty(t, cfg.Extract.TableEndMarkers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://u:p@localhost/attest")
	t.Setenv("WORKERS", "8")
	t.Setenv("INBOX_DIRS", " /a, ,/b ")
	t.Setenv("TABLE_END_MARKERS", "observacoes")
	t.Setenv("PROCESS_TIMEOUT", "10s")
	t.Setenv("OCR_DPI", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, "postgres://u:p@localhost/attest", cfg.Database.DSN)
	assert.Equal(t, 8, cfg.Ingest.Workers)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Ingest.InboxDirs)
	assert.Equal(t, []string{"observacoes"}, cfg.Extract.TableEndMarkers)
	assert.Equal(t, 10*time.Second, cfg.Ingest.ProcessTimeout)
	assert.Equal(t, 300, cfg.OCR.DPI)
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.Ingest.Workers = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestStorageError(t *testing.T) {
	assert.NoError(t, StorageError("op", nil))

	cause := errors.New("connection refused")
	err := StorageError("admit document", cause)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, WrapError(ErrNotFound, "get document"), ErrNotFound)
	assert.NoError(t, WrapError(nil, "noop"))
}
