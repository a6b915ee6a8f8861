package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benmeehan/locationsharing/internal/mocks"
	"github.com/benmeehan/locationsharing/pkg/file"
	"github.com/benmeehan/locationsharing/pkg/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvCookie, "")
	t.Setenv(EnvMapsAPIKey, "")
	t.Setenv(EnvLogLevel, "")
}

// TestLoadConfig_Defaults tests that a missing config file yields the defaults.
func TestLoadConfig_Defaults(t *testing.T) {
	// Setup
	clearEnv(t)
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("IsFileExists", "configs/config.yaml").Return(false, nil)

	// Execute
	config, err := LoadConfig("configs/config.yaml", fileClient)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, location.DefaultEndpoint, config.Sharing.Endpoint)
	assert.Equal(t, 30*time.Second, config.Sharing.Timeout)
	assert.Equal(t, "info", config.Logging.Level)
	assert.False(t, config.MQTT.Enabled)
	assert.False(t, config.Geocoding.Enabled)
	fileClient.AssertExpectations(t)
}

func TestLoadConfig_FromYamlFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sharing:
  cookie_file: /run/secrets/cookie
  timeout: 5s
logging:
  level: debug
mqtt:
  enabled: true
  broker: tcp://localhost:1883
  topic: home/people
  qos: 1
  retained: true
`), 0600))

	config, err := LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, location.DefaultEndpoint, config.Sharing.Endpoint)
	assert.Equal(t, "/run/secrets/cookie", config.Sharing.CookieFile)
	assert.Equal(t, 5*time.Second, config.Sharing.Timeout)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.MQTT.Enabled)
	assert.Equal(t, "tcp://localhost:1883", config.MQTT.Broker)
	assert.Equal(t, "home/people", config.MQTT.Topic)
	assert.Equal(t, 1, config.MQTT.QOS)
	assert.True(t, config.MQTT.Retained)
	assert.Equal(t, "locationsharing", config.MQTT.ClientID)
}

func TestLoadConfig_ParseError(t *testing.T) {
	clearEnv(t)
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("IsFileExists", "config.yaml").Return(true, nil)
	fileClient.On("ReadYamlFile", "config.yaml", mock.Anything).Return(errors.New("yaml: line 3: did not find expected key"))

	_, err := LoadConfig("config.yaml", fileClient)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCookie, "SID=abc")
	t.Setenv(EnvMapsAPIKey, "maps-key")
	t.Setenv(EnvLogLevel, "warn")
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("IsFileExists", "config.yaml").Return(true, nil)
	fileClient.On("ReadYamlFile", "config.yaml", mock.Anything).Run(func(args mock.Arguments) {
		config := args.Get(1).(*Config)
		config.Geocoding.Enabled = true
	}).Return(nil)

	config, err := LoadConfig("config.yaml", fileClient)

	require.NoError(t, err)
	assert.Equal(t, "SID=abc", config.Sharing.Cookie)
	assert.Equal(t, "maps-key", config.Geocoding.MapsAPIKey)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name:    "endpoint must be a URL",
			mutate:  func(c *Config) { c.Sharing.Endpoint = "not a url" },
			wantErr: "Endpoint",
		},
		{
			name:    "geocoding needs an API key",
			mutate:  func(c *Config) { c.Geocoding.Enabled = true },
			wantErr: "MapsAPIKey",
		},
		{
			name:    "mqtt needs a broker",
			mutate:  func(c *Config) { c.MQTT.Enabled = true },
			wantErr: "Broker",
		},
		{
			name:    "qos out of range",
			mutate:  func(c *Config) { c.MQTT.QOS = 3 },
			wantErr: "QOS",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Level",
		},
		{
			name:    "layout constraint not satisfied",
			mutate:  func(c *Config) { c.Sharing.LayoutConstraint = "^2.0.0" },
			wantErr: "does not satisfy layout_constraint",
		},
		{
			name:    "layout constraint unparsable",
			mutate:  func(c *Config) { c.Sharing.LayoutConstraint = "one point oh" },
			wantErr: "invalid layout_constraint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ResolveCookie(t *testing.T) {
	t.Run("environment wins", func(t *testing.T) {
		config := DefaultConfig()
		config.Sharing.Cookie = "SID=env"
		config.Sharing.CookieFile = "cookie.txt"
		fileClient := new(mocks.MockFileOperations)

		cookie, err := config.ResolveCookie(fileClient)

		require.NoError(t, err)
		assert.Equal(t, "SID=env", cookie)
		fileClient.AssertNotCalled(t, "ReadFile", mock.Anything)
	})

	t.Run("cookie file", func(t *testing.T) {
		config := DefaultConfig()
		config.Sharing.CookieFile = "cookie.txt"
		fileClient := new(mocks.MockFileOperations)
		fileClient.On("ReadFile", "cookie.txt").Return("SID=file", nil)

		cookie, err := config.ResolveCookie(fileClient)

		require.NoError(t, err)
		assert.Equal(t, "SID=file", cookie)
	})

	t.Run("empty cookie file", func(t *testing.T) {
		config := DefaultConfig()
		config.Sharing.CookieFile = "cookie.txt"
		fileClient := new(mocks.MockFileOperations)
		fileClient.On("ReadFile", "cookie.txt").Return("", nil)

		_, err := config.ResolveCookie(fileClient)

		assert.Error(t, err)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := DefaultConfig().ResolveCookie(new(mocks.MockFileOperations))

		assert.ErrorIs(t, err, ErrNoCookie)
	})
}
