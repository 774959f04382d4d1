package config

import (
	"fmt"
	"reflect"
	"strings"

	"listing-sync/core/broker"
	"listing-sync/core/database"
	"listing-sync/core/logger"
	"listing-sync/core/server"
	"listing-sync/core/storage"
	"listing-sync/feature/cms"
	"listing-sync/feature/listings"
	"listing-sync/feature/sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run history database.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the run report archive.
	Storage storage.Config `mapstructure:"storage"`
	// Broker holds configuration for run notifications.
	Broker broker.Config `mapstructure:"broker"`
	// CREA holds configuration for the DDF listing source.
	CREA listings.Config `mapstructure:"crea"`
	// Webflow holds configuration for the collection store.
	Webflow cms.Config `mapstructure:"webflow"`
	// Sync holds configuration for runs and their schedule.
	Sync sync.Config `mapstructure:"sync"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." || path == "" {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SYNC_BATCH_SIZE -> sync.batch_size)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports every setting a sync run cannot do without.
func (c *Config) Validate() error {
	var missing []string
	require := func(value, env string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}

	require(c.CREA.MemberClientID, "CREA_MEMBER_CLIENT_ID")
	require(c.CREA.MemberClientSecret, "CREA_MEMBER_CLIENT_SECRET")
	if c.CREA.NationalEnabled {
		require(c.CREA.NationalClientID, "CREA_NATIONAL_CLIENT_ID")
		require(c.CREA.NationalClientSecret, "CREA_NATIONAL_CLIENT_SECRET")
	}
	require(c.Webflow.Token, "WEBFLOW_TOKEN")
	require(c.Webflow.SiteID, "WEBFLOW_SITE_ID")
	require(c.Webflow.CollectionID, "WEBFLOW_COLLECTION_ID")

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be greater than zero, got %d", c.Sync.BatchSize)
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
