package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/benmeehan/device-locator/pkg/file"
)

const (
	// DefaultConfigFile is read when CONFIG_FILE is unset.
	DefaultConfigFile = "configs/config.yaml"

	// DefaultUserAgent identifies this application to Nominatim.
	DefaultUserAgent = "device_locator_tracker"

	envAccountID     = "ACCOUNT_ID"
	envAccountSecret = "ACCOUNT_SECRET"
	envDeviceName    = "DEVICE_NAME"
	envConfigFile    = "CONFIG_FILE"
)

// ErrMissingConfig is returned when a required setting is absent.
var ErrMissingConfig = errors.New("missing required configuration")

// Credentials are read from the environment and never persisted.
type Credentials struct {
	AccountID     string
	AccountSecret string
	DeviceName    string
}

// Config represents the structure of the configuration file.
type Config struct {
	Server struct {
		ListenAddr   string        `yaml:"listen_addr"`   // Address the HTTP server binds to
		ReadTimeout  time.Duration `yaml:"read_timeout"`  // Maximum duration for reading a request
		WriteTimeout time.Duration `yaml:"write_timeout"` // Maximum duration for writing a response
	} `yaml:"server"`

	Account struct {
		BaseURL string        `yaml:"base_url"` // Account service endpoint
		Timeout time.Duration `yaml:"timeout"`  // HTTP client timeout for account calls
	} `yaml:"account"`

	Session struct {
		Dir     string `yaml:"dir"`      // Directory holding the session artifact
		KeyFile string `yaml:"key_file"` // Optional secret used to encrypt the artifact
	} `yaml:"session"`

	Geocoder struct {
		Provider   string `yaml:"provider"`     // "nominatim" or "google"
		BaseURL    string `yaml:"base_url"`     // Nominatim endpoint
		UserAgent  string `yaml:"user_agent"`   // Client identifier required by Nominatim
		MapsAPIKey string `yaml:"maps_api_key"` // Google maps API Key
	} `yaml:"geocoder"`

	Cache struct {
		TTL time.Duration `yaml:"ttl"` // Freshness window of the cached location
	} `yaml:"cache"`

	Publisher struct {
		Enabled       bool   `yaml:"enabled"`        // Publish fresh locations over MQTT
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		Username      string `yaml:"username"`       // Optional broker username
		Password      string `yaml:"password"`       // Optional broker password
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate
		Topic         string `yaml:"topic"`          // Topic location updates are published to
		QOS           int    `yaml:"qos"`            // MQTT QoS level for location messages
		Retained      bool   `yaml:"retained"`       // Publish with the retained flag
	} `yaml:"publisher"`

	Log struct {
		Level string `yaml:"level"` // zerolog level name
	} `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	var config Config
	config.Server.ListenAddr = ":8000"
	config.Server.ReadTimeout = 10 * time.Second
	config.Server.WriteTimeout = 2 * time.Minute
	config.Account.Timeout = 30 * time.Second
	config.Session.Dir = ".session"
	config.Geocoder.Provider = "nominatim"
	config.Geocoder.UserAgent = DefaultUserAgent
	config.Cache.TTL = time.Hour
	config.Publisher.ClientID = "device-locator"
	config.Publisher.Topic = "device-locator/location"
	config.Publisher.QOS = 1
	config.Log.Level = "info"
	return &config
}

// LoadConfig loads the YAML configuration from the specified file on top of the defaults.
// A missing file leaves the defaults in place.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()

	exists, err := fileClient.IsFileExists(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", filename, err)
	}
	if !exists {
		return config, nil
	}

	if err := fileClient.ReadYamlFile(filename, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return config, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	var problems []string

	if c.Account.BaseURL == "" {
		problems = append(problems, "account.base_url must be set")
	}
	switch c.Geocoder.Provider {
	case "nominatim":
		if strings.TrimSpace(c.Geocoder.UserAgent) == "" {
			problems = append(problems, "geocoder.user_agent must be set for nominatim")
		}
	case "google":
		if c.Geocoder.MapsAPIKey == "" {
			problems = append(problems, "geocoder.maps_api_key must be set for google")
		}
	default:
		problems = append(problems, fmt.Sprintf("geocoder.provider %q is not supported", c.Geocoder.Provider))
	}
	if c.Publisher.Enabled {
		if c.Publisher.Broker == "" {
			problems = append(problems, "publisher.broker must be set when the publisher is enabled")
		}
		if c.Publisher.Topic == "" {
			problems = append(problems, "publisher.topic must be set when the publisher is enabled")
		}
		if c.Publisher.QOS < 0 || c.Publisher.QOS > 2 {
			problems = append(problems, "publisher.qos must be 0, 1 or 2")
		}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q is invalid", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LogLevel returns the configured zerolog level, defaulting to info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return level
}

// newEnv loads a .env file from the working directory, if any, and binds the environment.
func newEnv() *viper.Viper {
	_ = godotenv.Load() // a missing .env file is fine, the process environment is used

	v := viper.New()
	v.AutomaticEnv()
	return v
}

// ConfigPath returns the config file named by CONFIG_FILE or the default path.
func ConfigPath() string {
	v := newEnv()
	v.SetDefault(envConfigFile, DefaultConfigFile)
	return v.GetString(envConfigFile)
}

// LoadCredentials reads the account credentials and device name from the environment.
// All missing variables are reported together.
func LoadCredentials() (Credentials, error) {
	v := newEnv()

	creds := Credentials{
		AccountID:     strings.TrimSpace(v.GetString(envAccountID)),
		AccountSecret: v.GetString(envAccountSecret),
		DeviceName:    v.GetString(envDeviceName),
	}

	var missing []string
	if creds.AccountID == "" {
		missing = append(missing, envAccountID)
	}
	if creds.AccountSecret == "" {
		missing = append(missing, envAccountSecret)
	}
	if creds.DeviceName == "" {
		missing = append(missing, envDeviceName)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: environment variables %s must be set", ErrMissingConfig, strings.Join(missing, ", "))
	}

	return creds, nil
}
