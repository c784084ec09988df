package gravatar

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jon4hz/newsdesk/internal/config"
)

const baseURL = "https://www.gravatar.com/avatar/"

// URL returns the Gravatar URL for the given email address.
// It returns an empty string if Gravatar is disabled or the email is empty.
func URL(email string, cfg *config.GravatarConfig) string {
	if cfg == nil || !cfg.Enabled {
		return ""
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(email))
	avatar := baseURL + fmt.Sprintf("%x", hash)

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Add("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Add("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Add("s", strconv.Itoa(cfg.Size))
	}
	if len(params) > 0 {
		avatar += "?" + params.Encode()
	}
	return avatar
}
