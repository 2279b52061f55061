package transport

import "net/http"

// Authenticator applies credentials to outbound requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth applies nothing.
type NoAuth struct{}

// Apply implements Authenticator.
func (NoAuth) Apply(*http.Request) {}

// BearerAuth sends "Authorization: Bearer <token>".
type BearerAuth struct {
	Token string
}

// Apply implements Authenticator.
func (a BearerAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

// HeaderAuth sends the key in a custom header.
type HeaderAuth struct {
	Header string
	Key    string
}

// Apply implements Authenticator.
func (a HeaderAuth) Apply(req *http.Request) {
	if a.Key != "" {
		req.Header.Set(a.Header, a.Key)
	}
}

// QueryAuth sends the key as a query parameter.
type QueryAuth struct {
	Param string
	Key   string
}

// Apply implements Authenticator.
func (a QueryAuth) Apply(req *http.Request) {
	if a.Key == "" || req.URL == nil {
		return
	}
	q := req.URL.Query()
	q.Set(a.Param, a.Key)
	req.URL.RawQuery = q.Encode()
}
