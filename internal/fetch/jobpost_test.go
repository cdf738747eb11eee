package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHTML(t *testing.T, html string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestJobPostFetcher_StaticPage(t *testing.T) {
	long := strings.Repeat("Build distributed systems in Go. ", 30)
	url := serveHTML(t, `<html><body><nav>Menu</nav><div class="job-description"><h2>Senior Go Engineer</h2><p>`+long+`</p></div><form>Apply</form></body></html>`)

	rendered := false
	f := &JobPostFetcher{Render: func(context.Context, string) (string, error) {
		rendered = true
		return "", nil
	}}

	text, err := f.FetchText(context.Background(), url)
	require.NoError(t, err)
	assert.Contains(t, text, "Senior Go Engineer")
	assert.NotContains(t, text, "Menu")
	assert.NotContains(t, text, "Apply")
	assert.False(t, rendered)
}

func TestJobPostFetcher_BrowserFallback(t *testing.T) {
	url := serveHTML(t, `<html><body><div id="root"></div></body></html>`)

	f := &JobPostFetcher{Render: func(_ context.Context, got string) (string, error) {
		assert.Equal(t, url, got)
		return `<html><body><main>Rendered posting body</main></body></html>`, nil
	}}

	text, err := f.FetchText(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Rendered posting body", text)
}

func TestJobPostFetcher_BrowserFailureKeepsStaticText(t *testing.T) {
	url := serveHTML(t, `<html><body><main>Short posting</main></body></html>`)

	f := &JobPostFetcher{Render: func(context.Context, string) (string, error) {
		return "", errors.New("no chrome")
	}}

	text, err := f.FetchText(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Short posting", text)
}

func TestJobPostFetcher_EmptyPage(t *testing.T) {
	url := serveHTML(t, `<html><body><script>app()</script></body></html>`)

	_, err := (&JobPostFetcher{}).FetchText(context.Background(), url)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "no text found", fetchErr.Message)
}

func TestJobPostFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewJobPostFetcher(false, nil).FetchText(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestNewJobPostFetcher_Browser(t *testing.T) {
	assert.Nil(t, NewJobPostFetcher(false, nil).Render)
	assert.NotNil(t, NewJobPostFetcher(true, nil).Render)
}
