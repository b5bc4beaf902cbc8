package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

type stop struct {
	StopID   string `json:"stop_id"`
	StopName string `json:"stop_name"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func TestFetch_JSONArray(t *testing.T) {
	var gotPath, gotAccept string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"stop_id":"101","stop_name":"Van Cortlandt Park-242 St"},{"stop_id":"103","stop_name":"238 St"}]`))
	})

	items, err := Fetch(context.Background(), client, "/stops", nil, JSONArray[stop]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/stops" {
		t.Errorf("expected GET /stops, got %s", gotPath)
	}
	if gotAccept != "application/json" {
		t.Errorf("expected JSON accept header, got %q", gotAccept)
	}
	if len(items) != 2 || items[1].StopName != "238 St" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestFetch_ServerErrorIsHTTPStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := Fetch(context.Background(), client, "/stops", nil, JSONArray[stop]())

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *fetch.Error, got %T (%v)", err, err)
	}
	if fe.Kind != KindHTTPStatus || fe.Status != http.StatusInternalServerError {
		t.Errorf("expected 500 status error, got kind=%s status=%d", fe.Kind, fe.Status)
	}
	if !strings.Contains(fe.Message, "500") {
		t.Errorf("expected the status in the message, got %q", fe.Message)
	}
}

func TestFetch_ServerErrorMessageIncluded(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Invalid date format. Use YYYYMMDD."}`))
	})

	_, err := Fetch(context.Background(), client, "/api/route_stats", url.Values{"date": {"2024-01-01"}}, JSONField[stop]("route_stats"))
	if err == nil || !strings.Contains(err.Error(), "Invalid date format") {
		t.Fatalf("expected the server message in the error, got %v", err)
	}
}

func TestFetch_MalformedBodyIsParseError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := Fetch(context.Background(), client, "/routes", nil, JSONArray[stop]())
	if KindOf(err) != KindParse {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewClient(base)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = Fetch(context.Background(), client, "/routes", nil, JSONArray[stop]())
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestFetch_KeyedField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") != "20240115" {
			http.Error(w, `{"error":"bad date"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"most_frequent_routes":[{"stop_id":"A"}],"least_frequent_routes":[{"stop_id":"B"},{"stop_id":"C"}]}`))
	})

	params := url.Values{"date": {"20240115"}}
	least, err := Fetch(context.Background(), client, "/api/frequent_routes", params, JSONField[stop]("least_frequent_routes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(least) != 2 || least[0].StopID != "B" {
		t.Errorf("unexpected least_frequent_routes: %+v", least)
	}

	_, err = Fetch(context.Background(), client, "/api/frequent_routes", params, JSONField[stop]("peak_hour_routes"))
	if KindOf(err) != KindParse {
		t.Errorf("expected missing key to be a parse error, got %v", err)
	}
}

func TestJSONField_AcceptsBareArray(t *testing.T) {
	items, err := JSONField[stop]("stops")([]byte(` [{"stop_id":"1"}]`))
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one item, got %v (%v)", items, err)
	}
}

func TestDecoders_RejectNull(t *testing.T) {
	if _, err := JSONArray[stop]()([]byte(" null\n")); err == nil {
		t.Errorf("expected a null body to be rejected")
	}
	if _, err := JSONField[stop]("stops")([]byte(`{"stops": null}`)); err == nil {
		t.Errorf("expected a null field to be rejected")
	}
	if items, err := JSONArray[stop]()([]byte(`[]`)); err != nil || len(items) != 0 {
		t.Errorf("expected an empty array to decode, got %v (%v)", items, err)
	}
}

func TestFetch_NullBodyIsParseError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	_, err := Fetch(context.Background(), client, "/stops", nil, JSONArray[stop]())
	if KindOf(err) != KindParse {
		t.Errorf("expected a parse error, got %v", err)
	}
}

func TestJSONObject(t *testing.T) {
	type artifact struct {
		Message string `json:"message"`
		Path    string `json:"path"`
	}
	items, err := JSONObject[artifact]()([]byte(`{"message":"Heatmap created","path":"/static/heatmap.html"}`))
	if err != nil || len(items) != 1 || items[0].Path != "/static/heatmap.html" {
		t.Fatalf("unexpected result %v (%v)", items, err)
	}
	if _, err := JSONObject[artifact]()([]byte(`[]`)); err == nil {
		t.Errorf("expected an array to be rejected")
	}
}

func TestBuildURL_PathTemplate(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:5000/v1/")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	got, err := client.BuildURL("/route/{route_id}", url.Values{"route_id": {"M15 SBS"}, "b": {"2"}, "a": {"1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "http://127.0.0.1:5000/v1/route/M15%20SBS?a=1&b=2"
	if got != want {
		t.Errorf("BuildURL = %s, want %s", got, want)
	}

	if _, err := client.BuildURL("/trip/{trip_id}", nil); err == nil {
		t.Errorf("expected an empty path parameter to fail")
	}
}

func TestBuildURL_KeepsBaseQuery(t *testing.T) {
	client, err := NewClient("https://feeds.example.com/gtfs?feed=ace")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.BuildURL("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://feeds.example.com/gtfs?feed=ace" {
		t.Errorf("unexpected feed url %s", got)
	}
}

func TestNewClient_RejectsRelativeBase(t *testing.T) {
	for _, base := range []string{"", "localhost:5000", "ftp://example.com"} {
		if _, err := NewClient(base); err == nil {
			t.Errorf("expected %q to be rejected", base)
		}
	}
}

func TestFetch_Feed(t *testing.T) {
	message := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0"), Timestamp: proto.Uint64(1700000000)},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("1"),
				TripUpdate: &gtfs.TripUpdate{
					Trip: &gtfs.TripDescriptor{TripId: proto.String("A20240115"), RouteId: proto.String("A")},
				},
			},
			{Id: proto.String("2")},
		},
	}
	payload, err := proto.Marshal(message)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-protobuf")
		_, _ = w.Write(payload)
	})

	tripIDs := func(m *gtfs.FeedMessage) []string {
		var out []string
		for _, entity := range m.GetEntity() {
			if tu := entity.GetTripUpdate(); tu != nil {
				out = append(out, tu.GetTrip().GetTripId())
			}
		}
		return out
	}

	got, err := Fetch(context.Background(), client, "", nil, Feed(tripIDs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "A20240115" {
		t.Errorf("unexpected trip ids %v", got)
	}

	_, err = Feed(tripIDs)([]byte("not a protobuf"))
	if err == nil {
		t.Errorf("expected garbage to fail decoding")
	}
}
