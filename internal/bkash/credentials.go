package bkash

import "context"

// Credentials is everything needed to talk to the gateway. Built fresh per
// operation and never persisted.
type Credentials struct {
	Username  string
	Password  string
	AppKey    string
	AppSecret string
	BaseURL   string
	Sandbox   bool
}

// MissingFields returns the names of required fields that are empty, all of
// them, so configuration problems surface in one round.
func (c Credentials) MissingFields() []string {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.AppKey == "" {
		missing = append(missing, "app_key")
	}
	if c.AppSecret == "" {
		missing = append(missing, "app_secret")
	}
	if c.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	return missing
}

// CredentialProvider resolves gateway credentials from configuration.
// Implementations must read the source fresh on every call; credentials can
// change between admin edits.
type CredentialProvider interface {
	Resolve(ctx context.Context) (Credentials, error)
}

// StaticProvider serves a fixed credential set, typically from env config.
type StaticProvider struct {
	creds Credentials
}

func NewStaticProvider(creds Credentials) *StaticProvider {
	return &StaticProvider{creds: creds}
}

func (p *StaticProvider) Resolve(ctx context.Context) (Credentials, error) {
	if missing := p.creds.MissingFields(); len(missing) > 0 {
		return Credentials{}, &ConfigurationError{Missing: missing}
	}
	return p.creds, nil
}
