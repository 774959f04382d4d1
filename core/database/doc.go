// Package database opens the GORM connection backing the sync run history.
//
// MySQL is the production driver; sqlite (usually ":memory:") serves tests and local
// runs. Connect applies pool settings and verifies the connection with a ping bounded
// by the configured timeout.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("Database unavailable, run history disabled", zap.Error(err))
//	}
package database
