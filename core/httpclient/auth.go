package httpclient

import (
	"encoding/base64"
	"net/http"
)

// Auth decorates outgoing requests with credentials.
type Auth interface {
	Apply(req *http.Request)
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

func (NoAuth) Apply(*http.Request) {}

// BearerToken sets an Authorization: Bearer header.
type BearerToken struct {
	Token string
}

// Apply adds the bearer header when a token is set.
func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// BasicAuth sets an Authorization: Basic header.
type BasicAuth struct {
	Username string
	Password string
}

// Apply adds the basic header when credentials are set.
func (a BasicAuth) Apply(req *http.Request) {
	if a.Username == "" && a.Password == "" {
		return
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+credentials)
}
