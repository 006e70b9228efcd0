package transport

import "net/http"

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

// HeaderAuth sends the key as the raw value of a header. CKAN reads API
// tokens from the Authorization header without a scheme prefix.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, apiKey string) {
	header := a.Header
	if header == "" {
		header = "Authorization"
	}
	req.Header.Set(header, apiKey)
}

// ForScheme returns the authenticator for a configured scheme name:
// "bearer", "none", or anything else for a raw Authorization header.
func ForScheme(scheme string) Authenticator {
	switch scheme {
	case "bearer":
		return &BearerAuth{}
	case "none":
		return &NoAuth{}
	default:
		return &HeaderAuth{}
	}
}
