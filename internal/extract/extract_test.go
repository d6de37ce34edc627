package extract

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Acme Corp beats estimates - Example Finance</title>
	<meta property="og:site_name" content="Example Finance">
</head>
<body>
	<nav><a href="/">Home</a><a href="/markets">Markets</a></nav>
	<article>
		<h1>Acme Corp beats estimates</h1>
		<p>Acme Corp reported quarterly revenue of $4.2 billion on Tuesday, up 12 percent from a
		year earlier and ahead of analyst expectations, driven by strong demand in its cloud
		computing division.</p>
		<p>Chief executive Jane Smith said the company expects momentum to continue into the
		next quarter, although she warned that rising infrastructure costs could weigh on
		margins. Shares rose 5 percent in after-hours trading following the announcement.</p>
		<p>Analysts at several banks raised their price targets after the report, citing the
		durability of enterprise cloud spending in an otherwise uncertain macro environment.</p>
	</article>
	<footer>Copyright Example Finance</footer>
</body>
</html>`

func TestExtract(t *testing.T) {
	pageURL, _ := url.Parse("https://example.com/news/acme")
	art, err := Extract(strings.NewReader(samplePage), pageURL)
	require.NoError(t, err)

	assert.Contains(t, art.Title, "Acme Corp beats estimates")
	assert.Contains(t, art.Text, "quarterly revenue of $4.2 billion")
	assert.Contains(t, art.Text, "rising infrastructure costs")
}

func TestFetchArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 3)
	art, err := f.FetchArticle(srv.URL + "/news/acme")
	require.NoError(t, err)
	assert.Contains(t, art.Text, "cloud")
}

func TestFetchArticleRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 3)
	_, err := f.FetchArticle(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFetchArticleGivesUpOnClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 3)
	_, err := f.FetchArticle(srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatusCode))
	assert.Equal(t, 1, calls, "4xx should not be retried")
}

func TestFetchArticleInvalidURL(t *testing.T) {
	f := NewFetcher(time.Second, 1)
	_, err := f.FetchArticle("not-a-url")
	require.Error(t, err)
}
