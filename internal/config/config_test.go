package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Development defaults", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing cookie name", func(c *Config) { c.CookieName = "" }, true},
		{"Production with default DB password", func(c *Config) {
			c.Env = "production"
			c.CookieSecure = true
		}, true},
		{"Production with insecure cookie", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "sufficiently-strong"
			c.CookieSecure = false
		}, true},
		{"Production fully hardened", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "sufficiently-strong"
			c.CookieSecure = true
			c.DBSSLMode = "require"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Port:       "8460",
				DBPassword: "password",
				DBSSLMode:  "disable",
				CookieName: "quorum_session",
				Env:        "development",
			}
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
