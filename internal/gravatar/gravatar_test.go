package gravatar

import (
	"testing"

	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/stretchr/testify/assert"
)

const testHash = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

func TestURL(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		config   *config.GravatarConfig
		expected string
	}{
		{
			name:     "disabled gravatar",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: false},
			expected: "",
		},
		{
			name:     "nil config",
			email:    "test@example.com",
			config:   nil,
			expected: "",
		},
		{
			name:     "empty email",
			email:    "  ",
			config:   &config.GravatarConfig{Enabled: true},
			expected: "",
		},
		{
			name:     "basic enabled config",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: true},
			expected: baseURL + testHash,
		},
		{
			name:  "normalized email with all options",
			email: "  TEST@EXAMPLE.COM ",
			config: &config.GravatarConfig{
				Enabled:      true,
				DefaultImage: "identicon",
				Rating:       "pg",
				Size:         40,
			},
			expected: baseURL + testHash + "?d=identicon&r=pg&s=40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, URL(tt.email, tt.config))
		})
	}
}
