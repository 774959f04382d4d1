// Package httpclient provides a rate-limited HTTP client with retry on 429 and 5xx
// responses, shared by the listing source and the collection store clients.
package httpclient
