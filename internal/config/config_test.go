package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"dreampipe/internal/crypto"
)

func TestLoad(t *testing.T) {
	// In-memory keychain so tests never touch the real system keyring
	keyring.MockInit()

	t.Run("Should fail without an API key", func(t *testing.T) {
		t.Setenv("BACKEND_API_KEY", "")

		_, err := Load()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("Should apply defaults", func(t *testing.T) {
		t.Setenv("BACKEND_API_KEY", "secret")
		t.Setenv("PIPELINE_ROOT", "/srv/app")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "https://your-backend-api.com", cfg.BaseURL)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, "/srv/app/AppAssets/models.json", cfg.ModelsPath)
		assert.Equal(t, "/srv/app/tools/pipeline.log", cfg.LogPath)
		assert.Equal(t, "/srv/app/tools/convert.sh", cfg.ConvertScript)
		assert.Equal(t, 60, cfg.MaxPollAttempts)
		assert.Equal(t, 2*time.Second, cfg.PollInterval)
		assert.Equal(t, 5*time.Minute, cfg.ConvertTimeout)
	})

	t.Run("Should honor environment overrides", func(t *testing.T) {
		t.Setenv("BACKEND_API_KEY", "secret")
		t.Setenv("BACKEND_BASE_URL", "https://api.example.org/")
		t.Setenv("MODELS_JSON", "/data/models.json")
		t.Setenv("POLL_MAX_ATTEMPTS", "5")
		t.Setenv("POLL_INTERVAL", "250ms")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "https://api.example.org/", cfg.BaseURL)
		assert.Equal(t, "/data/models.json", cfg.ModelsPath)
		assert.Equal(t, 5, cfg.MaxPollAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	})

	t.Run("Should fall back to the keychain for the API key", func(t *testing.T) {
		t.Setenv("BACKEND_API_KEY", "")
		require.NoError(t, crypto.StoreAPIKey("from-keychain"))
		defer crypto.DeleteAPIKey()

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "from-keychain", cfg.APIKey)
	})

	t.Run("Should ignore malformed numeric overrides", func(t *testing.T) {
		t.Setenv("BACKEND_API_KEY", "secret")
		t.Setenv("POLL_MAX_ATTEMPTS", "not-a-number")
		t.Setenv("POLL_INTERVAL", "soon")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 60, cfg.MaxPollAttempts)
		assert.Equal(t, 2*time.Second, cfg.PollInterval)
	})
}
