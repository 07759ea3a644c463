package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/serprank/internal/domain"
	"github.com/kailas-cloud/serprank/internal/domain/search/query"
	"github.com/kailas-cloud/serprank/internal/domain/search/result"
	"github.com/kailas-cloud/serprank/internal/repository/record"
	"github.com/kailas-cloud/serprank/internal/transport/google"
	healthuc "github.com/kailas-cloud/serprank/internal/usecase/health"
	searchuc "github.com/kailas-cloud/serprank/internal/usecase/search"
)

// --- Mocks ---

type mockSearcher struct {
	links []string
	path  string
	err   error
	got   *query.Query
}

func (m *mockSearcher) Run(_ context.Context, q query.Query) (result.Outcome, error) {
	m.got = &q
	if m.err != nil {
		return result.Outcome{}, m.err
	}
	b := result.NewBuilder(q)
	for _, l := range m.links {
		b.Add(l)
	}
	return b.Build(m.path), nil
}

type mockRenderer struct {
	html []byte
	err  error
}

func (m *mockRenderer) Render(_ context.Context, _ string) ([]byte, error) {
	return m.html, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(t *testing.T, search Searcher, records RecordRenderer, health HealthChecker) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	NewServer(search, records, health, zap.NewNop()).Routes(r)
	return r
}

func postForm(t *testing.T, h http.Handler, phrase, website string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"phrase": {phrase}, "website": {website}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestForm_Empty(t *testing.T) {
	h := newTestRouter(t, &mockSearcher{}, &mockRenderer{}, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	require.Equal(t, http.StatusOK, rr.Code)

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find(`form input[name="phrase"]`).Length())
	require.Equal(t, 1, doc.Find(`form input[name="website"]`).Length())
	require.Equal(t, 0, doc.Find("#results").Length())
}

func TestSubmit_RendersRankedResults(t *testing.T) {
	search := &mockSearcher{
		links: []string{"https://a.com", "https://golang.org/x", "https://b.com"},
		path:  "records/rust_vs_go_2026-10-18.md",
	}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	rr := postForm(t, h, "rust vs go", "golang.org")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "rust vs go", search.got.Phrase())
	require.Equal(t, "golang.org", search.got.Website())

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)

	items := doc.Find("#results li")
	require.Equal(t, 3, items.Length())
	require.Equal(t, "https://a.com", strings.TrimSpace(items.Eq(0).Text()))
	require.Equal(t, "https://golang.org/x (MATCH)", strings.TrimSpace(items.Eq(1).Text()))
	require.Equal(t, 1, doc.Find("#results .match").Length())

	require.Contains(t, doc.Find("#summary").Text(), "found at position 2")
	require.Contains(t, doc.Find("#saved").Text(), "records/rust_vs_go_2026-10-18.md")
	href, _ := doc.Find("#saved a").Attr("href")
	require.Equal(t, "/records/rust_vs_go_2026-10-18.md", href)
}

func TestSubmit_NoWebsiteHidesSummary(t *testing.T) {
	search := &mockSearcher{links: []string{"https://a.com"}, path: "q_2026-10-18.md"}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	rr := postForm(t, h, "q", "")
	require.Equal(t, http.StatusOK, rr.Code)

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find("#results li").Length())
	require.Equal(t, 0, doc.Find("#summary").Length())
	require.Equal(t, 0, doc.Find("#results .match").Length())
}

func TestSubmit_NotFoundSummary(t *testing.T) {
	search := &mockSearcher{links: []string{"https://a.com"}, path: "q_2026-10-18.md"}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	rr := postForm(t, h, "q", "example.org")

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	require.Contains(t, doc.Find("#summary").Text(), "not found in the available search results")
}

func TestSubmit_ProviderError(t *testing.T) {
	search := &mockSearcher{err: domain.NewProviderError(http.StatusForbidden, "daily limit exceeded")}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	rr := postForm(t, h, "q", "")
	require.Equal(t, http.StatusBadGateway, rr.Code)

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	msg := doc.Find("#error").Text()
	require.Contains(t, msg, "403")
	require.Contains(t, msg, "daily limit exceeded")
	require.Equal(t, 0, doc.Find("#results").Length())
}

func TestSubmit_UnexpectedError(t *testing.T) {
	search := &mockSearcher{err: errors.New("disk full")}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	rr := postForm(t, h, "q", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "disk full")
}

func TestSearchAPI(t *testing.T) {
	search := &mockSearcher{
		links: []string{"https://a.com", "https://golang.org/x", "https://b.com"},
		path:  "rust_vs_go_2026-10-18.md",
	}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?phrase=rust+vs+go&website=golang.org", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp searchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "rust vs go", resp.Phrase)
	require.Equal(t, "golang.org", resp.Website)
	require.Len(t, resp.Results, 3)
	for i, l := range resp.Results {
		require.Equal(t, i+1, l.Rank)
	}
	require.True(t, resp.Results[1].Match)
	require.NotNil(t, resp.MatchedRank)
	require.Equal(t, 2, *resp.MatchedRank)
	require.Equal(t, "rust_vs_go_2026-10-18.md", resp.File)
}

func TestSearchAPI_NoWebsite(t *testing.T) {
	search := &mockSearcher{links: []string{"https://a.com"}, path: "q_2026-10-18.md"}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/search?phrase=q", http.NoBody))
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, search.got.TracksWebsite())

	var resp searchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Nil(t, resp.MatchedRank)
}

func TestSearchAPI_MissingPhrase(t *testing.T) {
	search := &mockSearcher{}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	for _, target := range []string{"/api/v1/search", "/api/v1/search?phrase="} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, http.NoBody))
		require.Equal(t, http.StatusBadRequest, rr.Code, target)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.Equal(t, "bad_request", resp.Code)
	}
	require.Nil(t, search.got, "search must not run without a phrase")
}

func TestSearchAPI_ProviderError(t *testing.T) {
	search := &mockSearcher{err: domain.NewProviderError(http.StatusForbidden, "forbidden")}
	h := newTestRouter(t, search, &mockRenderer{}, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/search?phrase=q", http.NoBody))
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "search_provider_error", resp.Code)
	require.Contains(t, resp.Message, "403")
}

func TestProviderTransportError_HidesAPIKey(t *testing.T) {
	const secret = "SUPER-SECRET-KEY"
	transport := httpmock.NewMockTransport()
	transport.RegisterNoResponder(httpmock.NewErrorResponder(errors.New("dial tcp: connection refused")))

	client := google.NewClient(&google.Config{
		APIKey:     secret,
		CX:         "cx1",
		HTTPClient: &http.Client{Transport: transport},
	})
	store := record.New(t.TempDir())
	h := newTestRouter(t, searchuc.New(client, store), store, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/search?phrase=go", http.NoBody))
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "search_provider_error", resp.Code)
	require.Contains(t, resp.Message, "connection refused")
	require.NotContains(t, resp.Message, secret)

	form := postForm(t, h, "go", "golang.org")
	require.Equal(t, http.StatusBadGateway, form.Code)
	require.NotContains(t, form.Body.String(), secret)
}

func TestRecord(t *testing.T) {
	records := &mockRenderer{html: []byte("<h1>Results for 'q'</h1>\n<ol><li>https://a.com</li></ol>")}
	h := newTestRouter(t, &mockSearcher{}, records, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records/q_2026-10-18.md", http.NoBody))
	require.Equal(t, http.StatusOK, rr.Code)

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	require.Equal(t, "q_2026-10-18.md", doc.Find("title").Text())
	require.Equal(t, 1, doc.Find("#record ol li").Length())
}

func TestRecord_NotFound(t *testing.T) {
	records := &mockRenderer{err: domain.ErrRecordNotFound}
	h := newTestRouter(t, &mockSearcher{}, records, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records/missing.md", http.NoBody))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		status int
	}{
		{
			name: "healthy",
			report: healthuc.Report{
				Status: healthuc.Healthy,
				Checks: map[string]healthuc.CheckResult{"search_provider": healthuc.CheckOK},
			},
			status: http.StatusOK,
		},
		{
			name: "degraded",
			report: healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{"output_dir": healthuc.CheckError},
			},
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(t, &mockSearcher{}, &mockRenderer{}, &mockHealth{report: tc.report})

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			require.Equal(t, tc.status, rr.Code)

			var resp healthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			require.Equal(t, string(tc.report.Status), resp.Status)
			require.Len(t, resp.Checks, len(tc.report.Checks))
		})
	}
}

func TestMetrics(t *testing.T) {
	h := newTestRouter(t, &mockSearcher{}, &mockRenderer{}, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, rr.Body.String())
}
