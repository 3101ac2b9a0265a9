package bkash

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_MissingFields(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		assert.Empty(t, testCreds.MissingFields())
	})

	t.Run("EachFieldReported", func(t *testing.T) {
		tests := []struct {
			mutate func(c *Credentials)
			want   string
		}{
			{func(c *Credentials) { c.Username = "" }, "username"},
			{func(c *Credentials) { c.Password = "" }, "password"},
			{func(c *Credentials) { c.AppKey = "" }, "app_key"},
			{func(c *Credentials) { c.AppSecret = "" }, "app_secret"},
			{func(c *Credentials) { c.BaseURL = "" }, "base_url"},
		}

		for _, tt := range tests {
			c := testCreds
			tt.mutate(&c)
			missing := c.MissingFields()
			require.Len(t, missing, 1)
			assert.Equal(t, tt.want, missing[0])
		}
	})

	t.Run("AllReportedAtOnce", func(t *testing.T) {
		missing := Credentials{}.MissingFields()
		assert.Equal(t, []string{"username", "password", "app_key", "app_secret", "base_url"}, missing)
	})
}

func TestStaticProvider_Resolve(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		creds, err := NewStaticProvider(testCreds).Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testCreds, creds)
	})

	t.Run("Incomplete", func(t *testing.T) {
		_, err := NewStaticProvider(Credentials{Username: "u"}).Resolve(context.Background())

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Missing, "password")
		assert.Contains(t, cfgErr.Missing, "app_key")
	})
}

func TestSettingsProvider_Resolve(t *testing.T) {
	ctx := context.Background()

	const (
		defaultSandbox = "https://tokenized.sandbox.bka.sh/v1.2.0-beta"
		defaultLive    = "https://tokenized.pay.bka.sh/v1.2.0-beta"
	)

	settingsRows := func(pairs map[string]string) *sqlmock.Rows {
		rows := sqlmock.NewRows([]string{"key", "value"})
		for k, v := range pairs {
			rows.AddRow(k, v)
		}
		return rows
	}

	t.Run("SandboxWithDefaults", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT key, value FROM bkash_settings`).
			WillReturnRows(settingsRows(map[string]string{
				"bkash_username":   "u",
				"bkash_password":   "p",
				"bkash_app_key":    "k",
				"bkash_app_secret": "s",
				"bkash_sandbox":    "1",
			}))

		creds, err := NewSettingsProvider(db, defaultSandbox, defaultLive).Resolve(ctx)
		require.NoError(t, err)
		assert.True(t, creds.Sandbox)
		assert.Equal(t, defaultSandbox, creds.BaseURL)
		assert.Equal(t, "u", creds.Username)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LiveWithCustomURL", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT key, value FROM bkash_settings`).
			WillReturnRows(settingsRows(map[string]string{
				"bkash_username":   "u",
				"bkash_password":   "p",
				"bkash_app_key":    "k",
				"bkash_app_secret": "s",
				"bkash_sandbox":    "0",
				"live_base_url":    "https://pay.example/v2",
			}))

		creds, err := NewSettingsProvider(db, defaultSandbox, defaultLive).Resolve(ctx)
		require.NoError(t, err)
		assert.False(t, creds.Sandbox)
		assert.Equal(t, "https://pay.example/v2", creds.BaseURL)
	})

	t.Run("MissingSettings", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT key, value FROM bkash_settings`).
			WillReturnRows(settingsRows(map[string]string{
				"bkash_username": "u",
			}))

		_, err = NewSettingsProvider(db, defaultSandbox, defaultLive).Resolve(ctx)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Missing, "password")
		assert.Contains(t, cfgErr.Missing, "app_secret")
	})

	t.Run("QueryError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT key, value FROM bkash_settings`).
			WillReturnError(context.DeadlineExceeded)

		_, err = NewSettingsProvider(db, defaultSandbox, defaultLive).Resolve(ctx)
		require.Error(t, err)
	})
}
