package web

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/jon4hz/newsdesk/internal/database"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Funcs(&config.GravatarConfig{Enabled: true, DefaultImage: "identicon", Size: 40}))
	require.NoError(t, err)
	return r
}

func renderPage(t *testing.T, r *Renderer, name string, data gin.H) string {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, r.Instance(name, data).Render(w))
	return w.Body.String()
}

func baseData(user *database.User) gin.H {
	return gin.H{
		"Title": "Test",
		"Page":  "",
		"Site":  &config.SiteConfig{Title: "newsdesk", ContactEmail: "desk@example.com"},
		"User":  user,
		"CSRF":  "token-123",
	}
}

func TestRendererHasAllPages(t *testing.T) {
	r := newTestRenderer(t)
	for _, page := range []string{"index.html", "about.html", "contacts.html", "news.html", "login.html", "register.html", "newsjob.html", "404.html"} {
		assert.True(t, r.Has(page), page)
	}
	assert.False(t, r.Has("layout.html"))
}

func TestRenderUnknownPageFallsBackTo404(t *testing.T) {
	r := newTestRenderer(t)
	body := renderPage(t, r, "missing.html", baseData(nil))
	assert.Contains(t, body, "Not found")
}

func TestRenderLayoutAnonymous(t *testing.T) {
	r := newTestRenderer(t)
	body := renderPage(t, r, "about.html", baseData(nil))
	assert.Contains(t, body, "<title>Test | newsdesk</title>")
	assert.Contains(t, body, `href="/login"`)
	assert.NotContains(t, body, `href="/logout"`)
}

func TestRenderLayoutLoggedIn(t *testing.T) {
	r := newTestRenderer(t)
	user := &database.User{ID: 1, Name: "alice", Email: lo.ToPtr("alice@example.com"), Level: 2}
	body := renderPage(t, r, "about.html", baseData(user))
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, `href="/logout"`)
	assert.Contains(t, body, "admin")
	assert.Contains(t, body, "https://www.gravatar.com/avatar/")
}

func TestRenderNewsOwnerLinks(t *testing.T) {
	r := newTestRenderer(t)
	owner := &database.User{ID: 1, Name: "alice"}
	data := baseData(owner)
	data["News"] = []database.News{
		{ID: 5, Title: "mine", UserID: 1, User: owner, CreatedAt: time.Now().Add(-time.Hour)},
		{ID: 6, Title: "theirs", UserID: 2, IsPrivate: true, User: &database.User{ID: 2, Name: "bob"}},
		{ID: 7, Title: "orphan", UserID: 9},
	}

	body := renderPage(t, r, "news.html", data)
	assert.Contains(t, body, `href="/newsjob/5"`)
	assert.Contains(t, body, `href="/newsdel/5"`)
	assert.NotContains(t, body, `href="/newsjob/6"`)
	assert.Contains(t, body, "theirs")
	assert.Contains(t, body, "private")
	assert.Contains(t, body, "unknown author")
}

func TestRenderFormsCarryCSRFToken(t *testing.T) {
	r := newTestRenderer(t)
	for _, page := range []string{"login.html", "register.html", "newsjob.html"} {
		data := baseData(nil)
		data["Form"] = gin.H{}
		data["Action"] = "/newsjob"
		body := renderPage(t, r, page, data)
		assert.Contains(t, body, `name="csrf_token" value="token-123"`, page)
	}
}

func TestRenderMessageIsEscaped(t *testing.T) {
	r := newTestRenderer(t)
	data := baseData(nil)
	data["Form"] = gin.H{}
	data["Message"] = "<b>bad</b>"
	body := renderPage(t, r, "login.html", data)
	assert.Contains(t, body, "&lt;b&gt;bad&lt;/b&gt;")
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,234", FormatCount(1234))
	assert.Equal(t, "7", FormatCount(7))
}

func TestFormatRelativeTime(t *testing.T) {
	assert.Empty(t, FormatRelativeTime(time.Time{}))
	assert.NotEmpty(t, FormatRelativeTime(time.Now().Add(-2*time.Hour)))
}
