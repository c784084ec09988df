package web

import (
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/jon4hz/newsdesk/internal/gravatar"
	"github.com/mergestat/timediff"
)

// Funcs returns the template helpers.
func Funcs(cfg *config.GravatarConfig) template.FuncMap {
	return template.FuncMap{
		"timeago": FormatRelativeTime,
		"comma":   FormatCount,
		"avatar": func(email *string) string {
			if email == nil {
				return ""
			}
			return gravatar.URL(*email, cfg)
		},
	}
}

// FormatRelativeTime formats a time.Time as a relative time string like "3 hours ago".
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timediff.TimeDiff(t)
}

// FormatCount formats a count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
