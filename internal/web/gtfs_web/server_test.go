package gtfs_web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/fetch"
	"tarediiran-industries.com/transit-dashboard/internal/panel"
	"tarediiran-industries.com/transit-dashboard/internal/transit"
)

type fakeAPI struct {
	hits       atomic.Int64
	failRoutes atomic.Bool
	release    chan struct{}
}

func routesJSON(n int) string {
	routes := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("Crosstown %02d", i)
		if i == 7 || i == 19 {
			name = fmt.Sprintf("Central Park %02d", i)
		}
		routes = append(routes, map[string]any{
			"route_id": fmt.Sprintf("R%02d", i), "route_short_name": fmt.Sprintf("R%02d", i),
			"route_long_name": name, "route_type": 3,
		})
	}
	body, _ := json.Marshal(routes)
	return string(body)
}

func newTestServer(t *testing.T, api *fakeAPI) *GtfsWebServer {
	t.Helper()

	routes := routesJSON(25)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.hits.Add(1)
		if api.release != nil {
			<-api.release
		}
		switch r.URL.Path {
		case "/routes":
			if api.failRoutes.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"routes table locked"}`))
				return
			}
			_, _ = w.Write([]byte(routes))
		case "/stops":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	client, err := fetch.NewClient(upstream.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	catalog, err := transit.NewCatalog(transit.Sources{API: client, Location: time.UTC})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	server, err := NewGtfsWebServer(ServerOptions{
		Catalog:     catalog,
		PollSeconds: 2,
		MaxSessions: 8,
		DefaultDate: "20240115",
		Location:    time.UTC,
		Now:         func() time.Time { return time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC) },
		Log:         zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewGtfsWebServer: %v", err)
	}
	return server
}

// browser carries the session cookie between requests.
type browser struct {
	t      *testing.T
	server *GtfsWebServer
	cookie *http.Cookie
}

func (b *browser) do(method, target string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	b.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	request := httptest.NewRequest(method, target, body)
	if form != nil {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for key, values := range header {
		request.Header[key] = values
	}
	if b.cookie != nil {
		request.AddCookie(b.cookie)
	}

	recorder := httptest.NewRecorder()
	b.server.Handler().ServeHTTP(recorder, request)
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == sessionCookie {
			b.cookie = cookie
		}
	}
	return recorder
}

func (b *browser) session() *Session {
	b.t.Helper()
	session, ok := b.server.sessions.cache.Get(b.cookie.Value)
	if !ok {
		b.t.Fatalf("session %s is not stored", b.cookie.Value)
	}
	return session
}

func (b *browser) waitPanel() {
	b.t.Helper()
	if p := b.session().Panel(); p != nil {
		p.Wait()
	}
}

func expectRedirect(t *testing.T, recorder *httptest.ResponseRecorder, location string) {
	t.Helper()
	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}

func TestRootRedirectsToDashboard(t *testing.T) {
	b := &browser{t: t, server: newTestServer(t, &fakeAPI{})}

	recorder := b.do(http.MethodGet, "/", nil, nil)
	if recorder.Code != http.StatusFound || recorder.Header().Get("Location") != "/dashboard" {
		t.Errorf("unexpected redirect %d %s", recorder.Code, recorder.Header().Get("Location"))
	}
}

func TestDashboard_CityTilesAndClock(t *testing.T) {
	b := &browser{t: t, server: newTestServer(t, &fakeAPI{})}

	page := b.do(http.MethodGet, "/dashboard", nil, nil).Body.String()
	for _, want := range []string{"15234 L", "2456 kg", "98.5%", "4.8/5", "01/15/2024", "09:30:00", "Route statistics"} {
		if !strings.Contains(page, want) {
			t.Errorf("dashboard is missing %q", want)
		}
	}

	expectRedirect(t, b.do(http.MethodPost, "/city", url.Values{"city": {"Kanpur"}}, nil), "/dashboard")
	page = b.do(http.MethodGet, "/dashboard", nil, nil).Body.String()
	if !strings.Contains(page, "12000 L") || !strings.Contains(page, "92.3%") {
		t.Errorf("expected the Kanpur tiles after switching city")
	}

	if code := b.do(http.MethodPost, "/city", url.Values{"city": {"Atlantis"}}, nil).Code; code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown city, got %d", code)
	}
}

func TestPanel_OpenPaginateSearch(t *testing.T) {
	b := &browser{t: t, server: newTestServer(t, &fakeAPI{})}

	expectRedirect(t, b.do(http.MethodPost, "/panel/open/routes", url.Values{}, nil), "/dashboard")
	b.waitPanel()

	partial := b.do(http.MethodGet, "/panel", nil, nil).Body.String()
	if !strings.Contains(partial, "Page 1 of 3") || !strings.Contains(partial, "Showing 1-10 of 25") {
		t.Fatalf("unexpected first page:\n%s", partial)
	}

	b.do(http.MethodPost, "/panel/next", url.Values{}, nil)
	partial = b.do(http.MethodGet, "/panel", nil, nil).Body.String()
	if !strings.Contains(partial, "Page 2 of 3") || !strings.Contains(partial, "R11") {
		t.Errorf("expected the second page, got:\n%s", partial)
	}

	b.do(http.MethodPost, "/panel/page", url.Values{"page": {"9"}}, nil)
	if v := b.session().Panel().View(); v.Page != 3 {
		t.Errorf("expected page 9 to clamp to 3, got %d", v.Page)
	}

	b.do(http.MethodPost, "/panel/search", url.Values{"q": {"central"}}, nil)
	v := b.session().Panel().View()
	if v.Page != 1 || v.Filtered != 2 || v.TotalPages != 1 {
		t.Errorf("expected two central routes on one page, got page %d filtered %d of %d", v.Page, v.Filtered, v.TotalPages)
	}

	if code := b.do(http.MethodPost, "/panel/page", url.Values{"page": {"two"}}, nil).Code; code != http.StatusBadRequest {
		t.Errorf("expected 400 for a non-numeric page, got %d", code)
	}
}

func TestPanel_FailedRefreshStaysVisible(t *testing.T) {
	api := &fakeAPI{}
	b := &browser{t: t, server: newTestServer(t, api)}

	b.do(http.MethodPost, "/panel/open/routes", url.Values{}, nil)
	b.waitPanel()

	api.failRoutes.Store(true)
	b.do(http.MethodPost, "/panel/refetch", url.Values{}, nil)
	b.waitPanel()

	partial := b.do(http.MethodGet, "/panel", nil, nil).Body.String()
	if !strings.Contains(partial, "routes table locked") || !strings.Contains(partial, "Showing results from an earlier request") {
		t.Errorf("expected the retained table with the failure note, got:\n%s", partial)
	}

	b.do(http.MethodPost, "/panel/search", url.Values{"q": {"zzz"}}, nil)
	partial = b.do(http.MethodGet, "/panel", nil, nil).Body.String()
	if !strings.Contains(partial, `class="error"`) || !strings.Contains(partial, "routes table locked") {
		t.Errorf("a search with no match must still show the failed refresh, got:\n%s", partial)
	}
	if strings.Contains(partial, "No results match") {
		t.Errorf("expected the error instead of the empty message, got:\n%s", partial)
	}
}

func TestPanel_ETag(t *testing.T) {
	b := &browser{t: t, server: newTestServer(t, &fakeAPI{})}
	b.do(http.MethodPost, "/panel/open/routes", url.Values{}, nil)
	b.waitPanel()

	first := b.do(http.MethodGet, "/panel", nil, nil)
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag")
	}
	again := b.do(http.MethodGet, "/panel", nil, http.Header{"If-None-Match": {etag}})
	if again.Code != http.StatusNotModified {
		t.Errorf("expected 304 for an unchanged panel, got %d", again.Code)
	}

	b.do(http.MethodPost, "/panel/next", url.Values{}, nil)
	changed := b.do(http.MethodGet, "/panel", nil, http.Header{"If-None-Match": {etag}})
	if changed.Code != http.StatusOK || changed.Header().Get("ETag") == etag {
		t.Errorf("expected a new ETag after paging, got %d %s", changed.Code, changed.Header().Get("ETag"))
	}
}

func TestPanel_MissingDateSendsNothing(t *testing.T) {
	api := &fakeAPI{}
	b := &browser{t: t, server: newTestServer(t, api)}

	expectRedirect(t, b.do(http.MethodPost, "/panel/open/route_stats", url.Values{"date": {""}}, nil), "/dashboard?compose=route_stats")
	page := b.do(http.MethodGet, "/dashboard?compose=route_stats", nil, nil).Body.String()
	if !strings.Contains(page, "Date is required.") {
		t.Errorf("expected the validation notice, got:\n%s", page)
	}
	if !strings.Contains(page, `value="20240115"`) {
		t.Errorf("expected the compose form to carry the default date")
	}
	if api.hits.Load() != 0 {
		t.Errorf("expected no upstream request, got %d", api.hits.Load())
	}
	if b.session().Panel() != nil {
		t.Errorf("a rejected open must not install a panel")
	}
}

func TestPanel_LoadingPollsAndOpeningReplaces(t *testing.T) {
	api := &fakeAPI{release: make(chan struct{})}
	b := &browser{t: t, server: newTestServer(t, api)}

	b.do(http.MethodPost, "/panel/open/routes", url.Values{}, nil)
	first := b.session().Panel()

	loading := b.do(http.MethodGet, "/panel", nil, nil)
	if !strings.Contains(loading.Body.String(), "Loading routes...") {
		t.Errorf("expected the loading message, got:\n%s", loading.Body.String())
	}
	if loading.Header().Get("Refresh") != "2" {
		t.Errorf("expected the partial to ask for a poll, got %q", loading.Header().Get("Refresh"))
	}

	b.do(http.MethodPost, "/panel/open/stops", url.Values{}, nil)
	if first.View().State != panel.StateClosed {
		t.Errorf("opening a panel must close the previous one")
	}

	close(api.release)
	first.Wait()
	b.waitPanel()

	partial := b.do(http.MethodGet, "/panel", nil, nil)
	if !strings.Contains(partial.Body.String(), "the transit API answered 500 Internal Server Error: database unavailable") {
		t.Errorf("expected the stops error, got:\n%s", partial.Body.String())
	}
	if partial.Header().Get("Refresh") != "" {
		t.Errorf("a settled panel must not poll")
	}
}

func TestPanel_ActionsWithoutPanel(t *testing.T) {
	b := &browser{t: t, server: newTestServer(t, &fakeAPI{})}

	expectRedirect(t, b.do(http.MethodPost, "/panel/next", url.Values{}, nil), "/dashboard")
	if page := b.do(http.MethodGet, "/dashboard", nil, nil).Body.String(); !strings.Contains(page, "No panel is open.") {
		t.Errorf("expected a notice for an action without a panel")
	}
	if code := b.do(http.MethodPost, "/panel/open/nope", url.Values{}, nil).Code; code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown panel, got %d", code)
	}

	b.do(http.MethodPost, "/panel/open/routes", url.Values{}, nil)
	if code := b.do(http.MethodPost, "/panel/explode", url.Values{}, nil).Code; code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown action, got %d", code)
	}
	b.do(http.MethodPost, "/panel/close", url.Values{}, nil)
	if b.session().Panel() != nil {
		t.Errorf("expected close to drop the panel")
	}
}

func TestHealthz(t *testing.T) {
	b := &browser{t: t, server: newTestServer(t, &fakeAPI{})}
	if recorder := b.do(http.MethodGet, "/healthz", nil, nil); recorder.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", recorder.Code)
	}
}
