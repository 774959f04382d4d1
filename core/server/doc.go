// Package server holds the HTTP server configuration.
//
// The main application entry point handles the server startup; this package only
// defines the port, the API key protecting the sync endpoints and the graceful
// shutdown budget.
//
// # Usage
//
// This package is embedded by core/config and read by cmd/start.go.
package server
