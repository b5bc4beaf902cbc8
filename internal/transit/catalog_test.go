package transit

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"tarediiran-industries.com/transit-dashboard/internal/collection"
	"tarediiran-industries.com/transit-dashboard/internal/fetch"
	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

const routeStatsBody = `{"route_stats":[
 {"route_id":"M15","route_long_name":"1st Av - 2nd Av","num_trips":412,"mean_headway":4.257,"mean_trip_duration":"NA","service_speed":13.1},
 {"route_id":"B44","route_long_name":"Nostrand Av","num_trips":301,"mean_headway":null,"mean_trip_duration":61.5,"service_speed":"NA"}
]}`

type recordedAPI struct {
	mu      sync.Mutex
	queries []url.Values
	paths   []string
}

func newCatalogAPI(t *testing.T, bodies map[string]string) (*recordedAPI, *fetch.Client) {
	t.Helper()
	rec := &recordedAPI{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.paths = append(rec.paths, r.URL.Path)
		rec.queries = append(rec.queries, r.URL.Query())
		rec.mu.Unlock()

		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := fetch.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return rec, client
}

func openAndWait(t *testing.T, catalog *panel.Catalog, name string, params url.Values) panel.View {
	t.Helper()
	entry, ok := catalog.Lookup(name)
	if !ok {
		t.Fatalf("panel %q is not registered", name)
	}
	p := entry.New()
	if err := p.Open(params); err != nil {
		t.Fatalf("Open(%s): %v", name, err)
	}
	p.Wait()
	return p.View()
}

func TestNewCatalog_RegistersEveryPanel(t *testing.T) {
	_, api := newCatalogAPI(t, nil)
	feed, err := fetch.NewClient("https://feeds.example.com/gtfs-ace")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	catalog, err := NewCatalog(Sources{API: api, Feed: feed})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	want := []string{
		"routes", "route", "trips", "trip", "stops", "calendar_dates",
		"route_stats", "trip_stats.time_of_day", "trip_stats.period",
		"frequent_routes.most", "frequent_routes.least", "peak_hour_traffic",
		"route_efficiency.most", "route_efficiency.least",
		"route_speed.slowest", "route_speed.fastest",
		"route_length.shortest", "route_length.longest",
		"trips_between_stops", "route_delays", "delay_distribution", "delayed_origins",
		"live_trips",
	}
	entries := catalog.Entries()
	if len(entries) != len(want) {
		t.Fatalf("expected %d panels, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entry %d: expected %s, got %s", i, name, entries[i].Name)
		}
	}

	withoutFeed, err := NewCatalog(Sources{API: api})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if _, ok := withoutFeed.Lookup("live_trips"); ok {
		t.Errorf("live_trips must be left out without a feed client")
	}
}

func TestRouteStats_RendersPlaceholders(t *testing.T) {
	rec, api := newCatalogAPI(t, map[string]string{"/api/route_stats": routeStatsBody})
	catalog, err := NewCatalog(Sources{API: api})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	v := openAndWait(t, catalog, "route_stats", url.Values{"date": {"20240115"}})
	if v.State != panel.StateReady || v.Total != 2 {
		t.Fatalf("expected two route stats, got state %s total %d (%s)", v.State, v.Total, v.Err)
	}
	if rec.queries[0].Get("date") != "20240115" {
		t.Errorf("expected the date to be sent, got %v", rec.queries[0])
	}

	m15, b44 := v.Rows[0], v.Rows[1]
	if m15[3] != "4.26" || m15[4] != "NA" || m15[5] != "13.10" {
		t.Errorf("unexpected M15 row %v", m15)
	}
	if b44[3] != "NA" || b44[5] != "NA" {
		t.Errorf("unexpected B44 row %v", b44)
	}
}

func TestRoutePanel_FillsPathTemplate(t *testing.T) {
	rec, api := newCatalogAPI(t, map[string]string{
		"/route/M15": `[{"route_id":"M15","route_short_name":"M15","route_long_name":"1st Av - 2nd Av","route_type":3}]`,
	})
	catalog, _ := NewCatalog(Sources{API: api})

	v := openAndWait(t, catalog, "route", url.Values{"route_id": {"M15"}})
	if v.State != panel.StateReady || v.Rows[0][3] != "3" {
		t.Fatalf("unexpected view %+v", v)
	}
	if rec.paths[0] != "/route/M15" || rec.queries[0].Has("route_id") {
		t.Errorf("expected route_id in the path only, got %s?%v", rec.paths[0], rec.queries[0])
	}
}

func TestRoutePanel_NotFoundMessage(t *testing.T) {
	_, api := newCatalogAPI(t, nil)
	catalog, _ := NewCatalog(Sources{API: api})

	v := openAndWait(t, catalog, "route", url.Values{"route_id": {"X99"}})
	if v.Kind() != "error" || v.Err != "the transit API answered 404 Not Found: not found" {
		t.Errorf("unexpected error view %q: %q", v.Kind(), v.Err)
	}
}

func TestTripPlanner_NormalizesStopNames(t *testing.T) {
	rec, api := newCatalogAPI(t, map[string]string{
		"/api/trips_between_stops": `{"start_stop_name":"Times Sq - 42 St","total_results":1,
			"trips_between_stops":[{"trip_id":"T1","route_short_name":"1","route_long_name":"Broadway - 7 Av Local","distance":8.25,"duration":0.412}]}`,
	})
	catalog, _ := NewCatalog(Sources{API: api})

	v := openAndWait(t, catalog, "trips_between_stops", url.Values{
		"start_stop_name": {"  Times Sq   - 42 St "},
		"end_stop_name":   {"96 St"},
	})
	if v.State != panel.StateReady || v.Rows[0][3] != "8.25" {
		t.Fatalf("unexpected view %+v", v)
	}
	if got := rec.queries[0].Get("start_stop_name"); got != "Times Sq - 42 St" {
		t.Errorf("expected a normalised stop name, got %q", got)
	}

	entry, _ := catalog.Lookup("trips_between_stops")
	if err := entry.New().Open(url.Values{"start_stop_name": {"96 St"}, "end_stop_name": {"   "}}); err == nil {
		t.Errorf("expected a blank end stop to be rejected")
	}
}

func TestCalendar_FormatsDatesAndFlags(t *testing.T) {
	_, api := newCatalogAPI(t, map[string]string{
		"/calendar_dates": `[{"service_id":"WKD","monday":1,"tuesday":1,"wednesday":1,"thursday":1,"friday":1,"saturday":0,"sunday":0,"start_date":"20240101","end_date":20241231}]`,
	})
	catalog, _ := NewCatalog(Sources{API: api})

	v := openAndWait(t, catalog, "calendar_dates", nil)
	row := v.Rows[0]
	if row[1] != "01/01/2024" || row[2] != "12/31/2024" {
		t.Errorf("unexpected dates %v", row[1:3])
	}
	if row[3] != "Yes" || row[8] != "No" {
		t.Errorf("unexpected weekday flags %v", row[3:])
	}
}

func TestDelayArtifact_SingleObject(t *testing.T) {
	_, api := newCatalogAPI(t, map[string]string{
		"/delay-distribution": `{"message":"Delay distribution graph saved as PNG","path":"/static/delay_distribution.png"}`,
	})
	catalog, _ := NewCatalog(Sources{API: api})

	v := openAndWait(t, catalog, "delay_distribution", nil)
	if v.Total != 1 || v.Rows[0][1] != "/static/delay_distribution.png" {
		t.Errorf("unexpected artifact view %+v", v.Rows)
	}
}

func TestPeakHourRoute_Fields(t *testing.T) {
	_, api := newCatalogAPI(t, map[string]string{
		"/api/peak_hour_traffic": `{"peak_hour_routes":[{"route_id":"Q32","route_long_name":"Jackson Heights","trip_id":57,"time_period":["8:00-9:59","16:00-17:59"]}]}`,
	})
	catalog, _ := NewCatalog(Sources{API: api})

	v := openAndWait(t, catalog, "peak_hour_traffic", url.Values{"date": {"20240115"}})
	if v.Rows[0][2] != "57" || v.Rows[0][3] != "8:00-9:59, 16:00-17:59" {
		t.Errorf("unexpected peak row %v", v.Rows[0])
	}
}

func TestTripUpdatesFromFeed(t *testing.T) {
	message := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("1"),
				TripUpdate: &gtfs.TripUpdate{
					Trip: &gtfs.TripDescriptor{
						TripId:    proto.String("083950_A..N"),
						RouteId:   proto.String("A"),
						StartDate: proto.String("20240115"),
					},
					StopTimeUpdate: []*gtfs.TripUpdate_StopTimeUpdate{
						{
							StopId:  proto.String("A15N"),
							Arrival: &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(1705330800), Delay: proto.Int32(90)},
						},
						{StopId: proto.String("A12N")},
					},
				},
			},
			{Id: proto.String("2"), IsDeleted: proto.Bool(true), TripUpdate: &gtfs.TripUpdate{Trip: &gtfs.TripDescriptor{TripId: proto.String("gone")}}},
			{Id: proto.String("3")},
		},
	}

	updates := TripUpdatesFromFeed(time.UTC)(message)
	if len(updates) != 1 {
		t.Fatalf("expected one live trip, got %d", len(updates))
	}
	u := updates[0]
	if u.TripID.Text() != "083950_A..N" || u.NextStopID.Text() != "A15N" {
		t.Errorf("unexpected trip %+v", u)
	}
	if u.NextArrival.Text() != "15:00:00" || u.Delay.Text() != "90" || u.StopCount.Text() != "2" {
		t.Errorf("unexpected arrival %q delay %q stops %q", u.NextArrival.Text(), u.Delay.Text(), u.StopCount.Text())
	}
	if !u.VehicleID.IsNull() {
		t.Errorf("expected no vehicle, got %q", u.VehicleID.Text())
	}

	got := collection.Filter(updates, []string{"route_id"}, "a")
	if len(got) != 1 {
		t.Errorf("expected the route filter to match, got %d", len(got))
	}
}
