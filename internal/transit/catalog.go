package transit

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"tarediiran-industries.com/transit-dashboard/internal/collection"
	"tarediiran-industries.com/transit-dashboard/internal/fetch"
	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

const (
	GroupNetwork     = "Network"
	GroupService     = "Service analysis"
	GroupPerformance = "Performance"
	GroupPlanner     = "Trip planner"
	GroupDelays      = "Delays"
	GroupLive        = "Live"
)

// Sources are the clients the catalog binds panels to. Feed may be nil, in
// which case the live panel is left out.
type Sources struct {
	API      *fetch.Client
	Feed     *fetch.Client
	Location *time.Location
}

func text(v val) string { return v.Or("NA") }

func fixed(decimals int) func(val) string {
	return func(v val) string { return v.Fixed(decimals, "NA") }
}

func yesNo(v val) string {
	if v.Truthy() {
		return "Yes"
	}
	return "No"
}

// gtfsDate renders YYYYMMDD as MM/DD/YYYY and leaves anything else alone.
func gtfsDate(v val) string {
	s := strings.TrimSpace(v.Text())
	if len(s) >= 8 && panel.ValidDate(s[:8]) {
		return s[4:6] + "/" + s[6:8] + "/" + s[:4]
	}
	return text(v)
}

func col[T any](header string, field func(T) val, format func(val) string) panel.Column[T] {
	return panel.Column[T]{Header: header, Value: func(t T) string { return format(field(t)) }}
}

var dated = []string{"date"}

func routeStatDomain[T collection.Record](name, title, path string, pageSize int, decoder fetch.Decoder[T], columns []panel.Column[T]) panel.Domain[T] {
	return panel.Domain[T]{
		Name:         name,
		Title:        title,
		Path:         path,
		Decoder:      decoder,
		SearchFields: []string{"route_id", "route_long_name"},
		PageSize:     pageSize,
		Columns:      columns,
		Required:     dated,
		ServerParams: dated,
	}
}

func normalizeStopNames(params url.Values) {
	for _, key := range []string{"start_stop_name", "end_stop_name"} {
		if params.Has(key) {
			params.Set(key, panel.CollapseSpaces(params.Get(key)))
		}
	}
}

// NewCatalog builds every dashboard panel. A definition error is returned
// rather than deferred until a user opens the panel.
func NewCatalog(src Sources, opts ...panel.Option) (*panel.Catalog, error) {
	if src.API == nil {
		return nil, errors.New("transit catalog needs an API client")
	}
	c := panel.NewCatalog()
	api := src.API
	var errs []error
	add := func(err error) { errs = append(errs, err) }

	routeColumns := []panel.Column[Route]{
		col("Route ID", func(r Route) val { return r.RouteID }, text),
		col("Short name", func(r Route) val { return r.RouteShortName }, text),
		col("Long name", func(r Route) val { return r.RouteLongName }, text),
		col("Type", func(r Route) val { return r.RouteType }, text),
	}
	add(panel.Add(c, GroupNetwork, "Every route in the feed", panel.Domain[Route]{
		Name: "routes", Title: "Routes", Path: "/routes",
		Decoder:      fetch.JSONArray[Route](),
		SearchFields: []string{"route_short_name", "route_long_name"},
		PageSize:     10,
		Columns:      routeColumns,
	}, api, opts...))
	add(panel.Add(c, GroupNetwork, "One route by id", panel.Domain[Route]{
		Name: "route", Title: "Route", Path: "/route/{route_id}",
		Decoder:      fetch.JSONArray[Route](),
		SearchFields: []string{"route_short_name", "route_long_name"},
		PageSize:     10,
		Columns:      routeColumns,
		Required:     []string{"route_id"},
	}, api, opts...))

	tripColumns := []panel.Column[Trip]{
		col("Trip ID", func(t Trip) val { return t.TripID }, text),
		col("Route ID", func(t Trip) val { return t.RouteID }, text),
		col("Service ID", func(t Trip) val { return t.ServiceID }, text),
		col("Headsign", func(t Trip) val { return t.TripHeadsign }, text),
	}
	add(panel.Add(c, GroupNetwork, "Every scheduled trip", panel.Domain[Trip]{
		Name: "trips", Title: "Trips", Path: "/trips",
		Decoder:      fetch.JSONArray[Trip](),
		SearchFields: []string{"trip_id", "route_id", "trip_headsign"},
		PageSize:     10,
		Columns:      tripColumns,
	}, api, opts...))
	add(panel.Add(c, GroupNetwork, "One trip by id", panel.Domain[Trip]{
		Name: "trip", Title: "Trip", Path: "/trip/{trip_id}",
		Decoder:      fetch.JSONArray[Trip](),
		SearchFields: []string{"trip_id", "trip_headsign"},
		PageSize:     10,
		Columns:      tripColumns,
		Required:     []string{"trip_id"},
	}, api, opts...))

	add(panel.Add(c, GroupNetwork, "Every stop and station", panel.Domain[Stop]{
		Name: "stops", Title: "Stops", Path: "/stops",
		Decoder:      fetch.JSONArray[Stop](),
		SearchFields: []string{"stop_name", "stop_id"},
		PageSize:     10,
		Columns: []panel.Column[Stop]{
			col("Stop ID", func(s Stop) val { return s.StopID }, text),
			col("Code", func(s Stop) val { return s.StopCode }, text),
			col("Name", func(s Stop) val { return s.StopName }, text),
			col("Description", func(s Stop) val { return s.StopDesc }, text),
			col("Latitude", func(s Stop) val { return s.StopLat }, fixed(5)),
			col("Longitude", func(s Stop) val { return s.StopLon }, fixed(5)),
		},
	}, api, opts...))

	add(panel.Add(c, GroupNetwork, "Weekly service calendars", panel.Domain[Service]{
		Name: "calendar_dates", Title: "Calendar dates", Path: "/calendar_dates",
		Decoder:      fetch.JSONArray[Service](),
		SearchFields: []string{"service_id"},
		PageSize:     10,
		Columns: []panel.Column[Service]{
			col("Service ID", func(s Service) val { return s.ServiceID }, text),
			col("Start", func(s Service) val { return s.StartDate }, gtfsDate),
			col("End", func(s Service) val { return s.EndDate }, gtfsDate),
			col("Mon", func(s Service) val { return s.Monday }, yesNo),
			col("Tue", func(s Service) val { return s.Tuesday }, yesNo),
			col("Wed", func(s Service) val { return s.Wednesday }, yesNo),
			col("Thu", func(s Service) val { return s.Thursday }, yesNo),
			col("Fri", func(s Service) val { return s.Friday }, yesNo),
			col("Sat", func(s Service) val { return s.Saturday }, yesNo),
			col("Sun", func(s Service) val { return s.Sunday }, yesNo),
		},
	}, api, opts...))

	add(panel.Add(c, GroupService, "Headway, distance and speed per route", routeStatDomain(
		"route_stats", "Route statistics", "/api/route_stats", 5,
		fetch.JSONField[RouteStat]("route_stats"),
		[]panel.Column[RouteStat]{
			col("Route", func(r RouteStat) val { return r.RouteID }, text),
			col("Name", func(r RouteStat) val { return r.RouteLongName }, text),
			col("Trips", func(r RouteStat) val { return r.NumTrips }, text),
			col("Mean headway (min)", func(r RouteStat) val { return r.MeanHeadway }, fixed(2)),
			col("Mean trip (min)", func(r RouteStat) val { return r.MeanTripDuration }, fixed(2)),
			col("Service speed (km/h)", func(r RouteStat) val { return r.ServiceSpeed }, fixed(2)),
		}), api, opts...))

	tripStatColumns := func(bucket string, field func(TripStat) val) []panel.Column[TripStat] {
		return []panel.Column[TripStat]{
			col(bucket, field, text),
			col("Trips", func(t TripStat) val { return t.NumTrips }, text),
			col("Mean duration (min)", func(t TripStat) val { return t.MeanDuration }, fixed(2)),
			col("Mean speed (km/h)", func(t TripStat) val { return t.MeanSpeed }, fixed(2)),
		}
	}
	add(panel.Add(c, GroupService, "Trip duration and speed by time of day", panel.Domain[TripStat]{
		Name: "trip_stats.time_of_day", Title: "Trip statistics by time of day", Path: "/api/trip_stats",
		Decoder:      fetch.JSONField[TripStat]("trip_duration_analysis"),
		SearchFields: []string{"time_of_day"},
		PageSize:     5,
		Columns:      tripStatColumns("Time of day", func(t TripStat) val { return t.TimeOfDay }),
		Required:     dated,
		ServerParams: dated,
	}, api, opts...))
	add(panel.Add(c, GroupService, "Trip duration and speed by two-hour period", panel.Domain[TripStat]{
		Name: "trip_stats.period", Title: "Trip statistics by period", Path: "/api/trip_stats",
		Decoder:      fetch.JSONField[TripStat]("trip_period_analysis"),
		SearchFields: []string{"period_time"},
		PageSize:     5,
		Columns:      tripStatColumns("Period", func(t TripStat) val { return t.PeriodTime }),
		Required:     dated,
		ServerParams: dated,
	}, api, opts...))

	headwayColumns := []panel.Column[RouteStat]{
		col("Route", func(r RouteStat) val { return r.RouteID }, text),
		col("Name", func(r RouteStat) val { return r.RouteLongName }, text),
		col("Min headway (min)", func(r RouteStat) val { return r.MinHeadway }, fixed(2)),
		col("Max headway (min)", func(r RouteStat) val { return r.MaxHeadway }, fixed(2)),
	}
	add(panel.Add(c, GroupService, "Routes with the shortest headways", routeStatDomain(
		"frequent_routes.most", "Most frequent routes", "/api/frequent_routes", 10,
		fetch.JSONField[RouteStat]("most_frequent_routes"), headwayColumns), api, opts...))
	add(panel.Add(c, GroupService, "Routes with the longest headways", routeStatDomain(
		"frequent_routes.least", "Least frequent routes", "/api/frequent_routes", 10,
		fetch.JSONField[RouteStat]("least_frequent_routes"), headwayColumns), api, opts...))

	add(panel.Add(c, GroupService, "Routes busiest in the peak periods", routeStatDomain(
		"peak_hour_traffic", "Peak hour traffic", "/api/peak_hour_traffic", 10,
		fetch.JSONField[PeakHourRoute]("peak_hour_routes"),
		[]panel.Column[PeakHourRoute]{
			col("Route", func(r PeakHourRoute) val { return r.RouteID }, text),
			col("Name", func(r PeakHourRoute) val { return r.RouteLongName }, text),
			col("Peak trips", func(r PeakHourRoute) val { return r.TripCount }, text),
			col("Periods", func(r PeakHourRoute) val { return r.TimePeriods }, text),
		}), api, opts...))

	efficiencyColumns := []panel.Column[EfficientRoute]{
		col("Route", func(r EfficientRoute) val { return r.RouteID }, text),
		col("Name", func(r EfficientRoute) val { return r.RouteLongName }, text),
		col("Efficiency score", func(r EfficientRoute) val { return r.EfficiencyScore }, fixed(3)),
	}
	add(panel.Add(c, GroupPerformance, "Highest composite efficiency", routeStatDomain(
		"route_efficiency.most", "Most efficient routes", "/api/route_efficiency", 5,
		fetch.JSONField[EfficientRoute]("most_efficient_routes"), efficiencyColumns), api, opts...))
	add(panel.Add(c, GroupPerformance, "Lowest composite efficiency", routeStatDomain(
		"route_efficiency.least", "Least efficient routes", "/api/route_efficiency", 5,
		fetch.JSONField[EfficientRoute]("least_efficient_routes"), efficiencyColumns), api, opts...))

	speedColumns := []panel.Column[RouteStat]{
		col("Route", func(r RouteStat) val { return r.RouteID }, text),
		col("Name", func(r RouteStat) val { return r.RouteLongName }, text),
		col("Service speed (km/h)", func(r RouteStat) val { return r.ServiceSpeed }, fixed(2)),
	}
	add(panel.Add(c, GroupPerformance, "Lowest service speed", routeStatDomain(
		"route_speed.slowest", "Slowest routes", "/api/slowest_fastest_routes", 10,
		fetch.JSONField[RouteStat]("slowest_routes"), speedColumns), api, opts...))
	add(panel.Add(c, GroupPerformance, "Highest service speed", routeStatDomain(
		"route_speed.fastest", "Fastest routes", "/api/slowest_fastest_routes", 10,
		fetch.JSONField[RouteStat]("fastest_routes"), speedColumns), api, opts...))

	lengthColumns := []panel.Column[RouteStat]{
		col("Route", func(r RouteStat) val { return r.RouteID }, text),
		col("Name", func(r RouteStat) val { return r.RouteLongName }, text),
		col("Mean trip distance (km)", func(r RouteStat) val { return r.MeanTripDistance }, fixed(2)),
	}
	add(panel.Add(c, GroupPerformance, "Shortest mean trip distance", routeStatDomain(
		"route_length.shortest", "Shortest routes", "/api/shortest_longest_routes", 10,
		fetch.JSONField[RouteStat]("shortest_routes"), lengthColumns), api, opts...))
	add(panel.Add(c, GroupPerformance, "Longest mean trip distance", routeStatDomain(
		"route_length.longest", "Longest routes", "/api/shortest_longest_routes", 10,
		fetch.JSONField[RouteStat]("longest_routes"), lengthColumns), api, opts...))

	stopNames := []string{"start_stop_name", "end_stop_name"}
	add(panel.Add(c, GroupPlanner, "Trips serving both stops", panel.Domain[PlannedTrip]{
		Name: "trips_between_stops", Title: "Trips between stops", Path: "/api/trips_between_stops",
		Decoder:      fetch.JSONField[PlannedTrip]("trips_between_stops"),
		SearchFields: []string{"route_short_name", "route_long_name", "trip_id"},
		PageSize:     10,
		Columns: []panel.Column[PlannedTrip]{
			col("Trip ID", func(p PlannedTrip) val { return p.TripID }, text),
			col("Route", func(p PlannedTrip) val { return p.RouteShortName }, text),
			col("Name", func(p PlannedTrip) val { return p.RouteLongName }, text),
			col("Distance (km)", func(p PlannedTrip) val { return p.Distance }, fixed(2)),
			col("Duration (h)", func(p PlannedTrip) val { return p.Duration }, fixed(2)),
		},
		Required:     stopNames,
		ServerParams: stopNames,
		Normalize:    normalizeStopNames,
	}, api, opts...))

	add(panel.Add(c, GroupDelays, "Average bus delay per line", panel.Domain[RouteDelay]{
		Name: "route_delays", Title: "Route delays", Path: "/route-analysis",
		Decoder:      fetch.JSONArray[RouteDelay](),
		SearchFields: []string{"PublishedLineName"},
		PageSize:     10,
		Columns: []panel.Column[RouteDelay]{
			col("Line", func(r RouteDelay) val { return r.PublishedLineName }, text),
			col("Avg delay (min)", func(r RouteDelay) val { return r.AvgDelays }, fixed(2)),
			col("Trips", func(r RouteDelay) val { return r.TotalTrips }, text),
		},
	}, api, opts...))

	artifactColumns := []panel.Column[Artifact]{
		col("Message", func(a Artifact) val { return a.Message }, text),
		col("Path", func(a Artifact) val { return a.Path }, text),
	}
	add(panel.Add(c, GroupDelays, "Delay histogram artifact", panel.Domain[Artifact]{
		Name: "delay_distribution", Title: "Delay distribution", Path: "/delay-distribution",
		Decoder:      fetch.JSONObject[Artifact](),
		SearchFields: []string{"message"},
		PageSize:     10,
		Columns:      artifactColumns,
	}, api, opts...))
	add(panel.Add(c, GroupDelays, "Delayed origins heatmap artifact", panel.Domain[Artifact]{
		Name: "delayed_origins", Title: "Delayed origins", Path: "/delayed-origins-heatmap",
		Decoder:      fetch.JSONObject[Artifact](),
		SearchFields: []string{"message"},
		PageSize:     10,
		Columns:      artifactColumns,
	}, api, opts...))

	if src.Feed != nil {
		add(panel.Add(c, GroupLive, "Trip updates from the realtime feed", panel.Domain[TripUpdate]{
			Name: "live_trips", Title: "Live trips", Path: "",
			Decoder:      fetch.Feed(TripUpdatesFromFeed(src.Location)),
			SearchFields: []string{"trip_id", "route_id"},
			PageSize:     10,
			Columns: []panel.Column[TripUpdate]{
				col("Trip ID", func(t TripUpdate) val { return t.TripID }, text),
				col("Route", func(t TripUpdate) val { return t.RouteID }, text),
				col("Next stop", func(t TripUpdate) val { return t.NextStopID }, text),
				col("Arrival", func(t TripUpdate) val { return t.NextArrival }, text),
				col("Delay (s)", func(t TripUpdate) val { return t.Delay }, text),
				col("Stops left", func(t TripUpdate) val { return t.StopCount }, text),
			},
		}, src.Feed, opts...))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}
