// Package config loads the listing-sync configuration.
//
// Values come from environment variables, optionally seeded from a .env file.
// Every field declares its default in a `default` struct tag; nested sections
// map to underscore separated variables, so sync.batch_size is read from
// SYNC_BATCH_SIZE and crea.member_client_id from CREA_MEMBER_CLIENT_ID.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, shutdown timeout
//   - Log: level and format
//   - Database: run history table (mysql or sqlite)
//   - Storage: run report archive bucket
//   - Broker: AMQP run notifications
//   - CREA: DDF credentials, feeds and request pacing
//   - Webflow: collection, site, publish domains and request pacing
//   - Sync: schedule, batch size, cool-down and cleanup guard
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
