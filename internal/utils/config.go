package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/locationsharing/pkg/file"
	"github.com/benmeehan/locationsharing/pkg/location"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment variables that override the configuration file.
const (
	EnvCookie     = "GOOGLE_COOKIE"
	EnvMapsAPIKey = "GOOGLE_MAPS_API_KEY"
	EnvLogLevel   = "LOG_LEVEL"
)

// ErrNoCookie is returned by ResolveCookie when neither the environment nor a cookie file provides one.
var ErrNoCookie = errors.New("no cookie configured: set " + EnvCookie + " or sharing.cookie_file")

// Config represents the structure of the configuration file.
type Config struct {
	Sharing struct {
		Endpoint         string        `yaml:"endpoint" validate:"required,url"`      // Location sharing read endpoint
		Cookie           string        `yaml:"-"`                                     // Session cookie, only ever taken from the environment
		CookieFile       string        `yaml:"cookie_file"`                           // Path to a file holding the session cookie
		Timeout          time.Duration `yaml:"timeout" validate:"min=0"`              // Timeout for the whole HTTP request
		LayoutConstraint string        `yaml:"layout_constraint" validate:"required"` // Semver constraint the record layout must satisfy
	} `yaml:"sharing"`

	Logging struct {
		Level string `yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"` // zerolog level
	} `yaml:"logging"`

	Geocoding struct {
		Enabled    bool          `yaml:"enabled"`                                          // Fill missing addresses by reverse geocoding
		MapsAPIKey string        `yaml:"maps_api_key" validate:"required_if=Enabled true"` // Google maps API Key
		Timeout    time.Duration `yaml:"timeout" validate:"min=0"`                         // Timeout per reverse geocoding request
	} `yaml:"geocoding"`

	MQTT struct {
		Enabled        bool          `yaml:"enabled"`                                    // Publish fetched locations
		Broker         string        `yaml:"broker" validate:"required_if=Enabled true"` // MQTT broker address
		ClientID       string        `yaml:"client_id"`                                  // MQTT client ID prefix
		CACertificate  string        `yaml:"ca_certificate"`                             // Path to the CA certificate
		Username       string        `yaml:"username"`                                   // Broker username
		Password       string        `yaml:"password"`                                   // Broker password
		Topic          string        `yaml:"topic" validate:"required_if=Enabled true"`  // Topic prefix, the person ID is appended
		QOS            int           `yaml:"qos" validate:"min=0,max=2"`                 // MQTT QoS level for location messages
		Retained       bool          `yaml:"retained"`                                   // Publish as retained messages
		ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"min=0"`           // Timeout for connecting to the broker
	} `yaml:"mqtt"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	var config Config
	config.Sharing.Endpoint = location.DefaultEndpoint
	config.Sharing.Timeout = 30 * time.Second
	config.Sharing.LayoutConstraint = "^1.0.0"
	config.Logging.Level = "info"
	config.Geocoding.Timeout = 10 * time.Second
	config.MQTT.ClientID = "locationsharing"
	config.MQTT.Topic = "locationsharing"
	config.MQTT.ConnectTimeout = 10 * time.Second
	return &config
}

// LoadConfig loads the YAML configuration from the specified file on top of the
// defaults, applies environment overrides (including a .env file in the working
// directory) and validates the result. A missing file is not an error.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		exists, err := fileClient.IsFileExists(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if exists {
			if err := fileClient.ReadYamlFile(filename, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCookie); v != "" {
		c.Sharing.Cookie = v
	}
	if v := os.Getenv(EnvMapsAPIKey); v != "" {
		c.Geocoding.MapsAPIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the struct constraints and that the compiled record layout
// satisfies the configured constraint.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	constraint, err := semver.NewConstraint(c.Sharing.LayoutConstraint)
	if err != nil {
		return fmt.Errorf("invalid layout_constraint %q: %w", c.Sharing.LayoutConstraint, err)
	}
	if !constraint.Check(location.SharingLayout.Version) {
		return fmt.Errorf("record layout %s does not satisfy layout_constraint %q",
			location.SharingLayout.Version, c.Sharing.LayoutConstraint)
	}
	return nil
}

// ResolveCookie returns the session cookie from the environment, falling back to
// the configured cookie file.
func (c *Config) ResolveCookie(fileClient file.FileOperations) (string, error) {
	if c.Sharing.Cookie != "" {
		return c.Sharing.Cookie, nil
	}
	if c.Sharing.CookieFile == "" {
		return "", ErrNoCookie
	}

	cookie, err := fileClient.ReadFile(c.Sharing.CookieFile)
	if err != nil {
		return "", fmt.Errorf("failed to read cookie file: %w", err)
	}
	if cookie == "" {
		return "", fmt.Errorf("cookie file %s is empty", c.Sharing.CookieFile)
	}
	return cookie, nil
}
