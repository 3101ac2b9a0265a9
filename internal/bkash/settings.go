package bkash

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// Setting keys in the bkash_settings table, owned by the admin UI.
const (
	settingUsername       = "bkash_username"
	settingPassword       = "bkash_password"
	settingAppKey         = "bkash_app_key"
	settingAppSecret      = "bkash_app_secret"
	settingSandbox        = "bkash_sandbox"
	settingSandboxBaseURL = "sandbox_base_url"
	settingLiveBaseURL    = "live_base_url"
)

// SettingsProvider resolves credentials from the admin-managed settings
// table. Every Resolve hits the database so admin edits take effect on the
// next payment without a restart.
type SettingsProvider struct {
	db *sql.DB

	// Fallback endpoints when the admin left the URL fields empty.
	defaultSandboxURL string
	defaultLiveURL    string
}

func NewSettingsProvider(db *sql.DB, defaultSandboxURL, defaultLiveURL string) *SettingsProvider {
	return &SettingsProvider{
		db:                db,
		defaultSandboxURL: defaultSandboxURL,
		defaultLiveURL:    defaultLiveURL,
	}
}

func (p *SettingsProvider) Resolve(ctx context.Context) (Credentials, error) {
	keys := []string{
		settingUsername,
		settingPassword,
		settingAppKey,
		settingAppSecret,
		settingSandbox,
		settingSandboxBaseURL,
		settingLiveBaseURL,
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT key, value FROM bkash_settings WHERE key = ANY($1)
	`, pq.Array(keys))
	if err != nil {
		return Credentials{}, err
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Credentials{}, err
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return Credentials{}, err
	}

	sandbox := values[settingSandbox] == "1" || values[settingSandbox] == "true"

	baseURL := values[settingLiveBaseURL]
	if baseURL == "" {
		baseURL = p.defaultLiveURL
	}
	if sandbox {
		baseURL = values[settingSandboxBaseURL]
		if baseURL == "" {
			baseURL = p.defaultSandboxURL
		}
	}

	creds := Credentials{
		Username:  values[settingUsername],
		Password:  values[settingPassword],
		AppKey:    values[settingAppKey],
		AppSecret: values[settingAppSecret],
		BaseURL:   baseURL,
		Sandbox:   sandbox,
	}

	if missing := creds.MissingFields(); len(missing) > 0 {
		return Credentials{}, &ConfigurationError{Missing: missing}
	}

	return creds, nil
}
