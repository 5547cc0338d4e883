package dynamix

import "encoding/base64"

// AuthProvider injects credentials into a request descriptor. Apply receives
// a clone and returns the descriptor to dispatch; it must be synchronous and
// side-effect-free beyond header/query mutation of that clone. Auth-injected
// headers never displace an explicit per-call or client-default header.
type AuthProvider interface {
	Apply(req *RequestDescriptor) *RequestDescriptor
}

// BearerAuth injects an RFC 6750 bearer token.
type BearerAuth struct {
	Token string
	// Header overrides the Authorization header name.
	Header string
}

// Apply implements AuthProvider.
func (a BearerAuth) Apply(req *RequestDescriptor) *RequestDescriptor {
	header := a.Header
	if header == "" {
		header = "Authorization"
	}
	req.Header.Set(header, "Bearer "+a.Token)
	return req
}

// APIKeyAuth injects an API key header.
type APIKeyAuth struct {
	Key string
	// Header overrides the X-API-Key header name.
	Header string
}

// Apply implements AuthProvider.
func (a APIKeyAuth) Apply(req *RequestDescriptor) *RequestDescriptor {
	header := a.Header
	if header == "" {
		header = "X-API-Key"
	}
	req.Header.Set(header, a.Key)
	return req
}

// BasicAuth injects HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Apply implements AuthProvider.
func (a BasicAuth) Apply(req *RequestDescriptor) *RequestDescriptor {
	cred := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+cred)
	return req
}

// MultiAuth applies several providers in order; later providers see the
// headers earlier ones injected.
type MultiAuth []AuthProvider

// Apply implements AuthProvider.
func (m MultiAuth) Apply(req *RequestDescriptor) *RequestDescriptor {
	for _, p := range m {
		req = p.Apply(req)
	}
	return req
}
