package sync

import "time"

// Config holds configuration for sync runs and their schedule.
type Config struct {
	// Enabled turns on the cron schedule. Manual triggers always work.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Schedule is a standard five field cron expression.
	Schedule string `mapstructure:"schedule" default:"0 1 * * *"`
	// Timezone is the IANA location the schedule is evaluated in.
	Timezone string `mapstructure:"timezone" default:"America/Denver"`
	// BatchSize is the number of concurrent store calls per batch.
	BatchSize int `mapstructure:"batch_size" default:"100"`
	// BatchDelay is the cool-down between batches.
	BatchDelay time.Duration `mapstructure:"batch_delay" default:"60s"`
	// ItemTimeout bounds a single create, update or delete. Zero disables it.
	ItemTimeout time.Duration `mapstructure:"item_timeout" default:"2m"`
	// MinListings aborts cleanup when a run fetched fewer listings. Zero disables the guard.
	MinListings int `mapstructure:"min_listings" default:"0"`
	// ReportTimeout bounds the report sinks after a run.
	ReportTimeout time.Duration `mapstructure:"report_timeout" default:"30s"`
}
