// Package transit holds one record type per dashboard data domain and the
// panel catalog that binds each of them to its API endpoint.
package transit

import "tarediiran-industries.com/transit-dashboard/internal/collection"

type val = collection.Value

type Route struct {
	RouteID        val `json:"route_id"`
	AgencyID       val `json:"agency_id"`
	RouteShortName val `json:"route_short_name"`
	RouteLongName  val `json:"route_long_name"`
	RouteDesc      val `json:"route_desc"`
	RouteType      val `json:"route_type"`
	RouteURL       val `json:"route_url"`
	RouteColor     val `json:"route_color"`
	RouteTextColor val `json:"route_text_color"`
}

func (r Route) Field(name string) (val, bool) {
	switch name {
	case "route_id":
		return r.RouteID, true
	case "agency_id":
		return r.AgencyID, true
	case "route_short_name":
		return r.RouteShortName, true
	case "route_long_name":
		return r.RouteLongName, true
	case "route_desc":
		return r.RouteDesc, true
	case "route_type":
		return r.RouteType, true
	case "route_url":
		return r.RouteURL, true
	case "route_color":
		return r.RouteColor, true
	case "route_text_color":
		return r.RouteTextColor, true
	}
	return val{}, false
}

type Trip struct {
	RouteID      val `json:"route_id"`
	ServiceID    val `json:"service_id"`
	TripID       val `json:"trip_id"`
	TripHeadsign val `json:"trip_headsign"`
	DirectionID  val `json:"direction_id"`
	BlockID      val `json:"block_id"`
	ShapeID      val `json:"shape_id"`
}

func (t Trip) Field(name string) (val, bool) {
	switch name {
	case "route_id":
		return t.RouteID, true
	case "service_id":
		return t.ServiceID, true
	case "trip_id":
		return t.TripID, true
	case "trip_headsign":
		return t.TripHeadsign, true
	case "direction_id":
		return t.DirectionID, true
	case "block_id":
		return t.BlockID, true
	case "shape_id":
		return t.ShapeID, true
	}
	return val{}, false
}

type Stop struct {
	StopID        val `json:"stop_id"`
	StopCode      val `json:"stop_code"`
	StopName      val `json:"stop_name"`
	StopDesc      val `json:"stop_desc"`
	StopLat       val `json:"stop_lat"`
	StopLon       val `json:"stop_lon"`
	ZoneID        val `json:"zone_id"`
	LocationType  val `json:"location_type"`
	ParentStation val `json:"parent_station"`
}

func (s Stop) Field(name string) (val, bool) {
	switch name {
	case "stop_id":
		return s.StopID, true
	case "stop_code":
		return s.StopCode, true
	case "stop_name":
		return s.StopName, true
	case "stop_desc":
		return s.StopDesc, true
	case "stop_lat":
		return s.StopLat, true
	case "stop_lon":
		return s.StopLon, true
	case "zone_id":
		return s.ZoneID, true
	case "location_type":
		return s.LocationType, true
	case "parent_station":
		return s.ParentStation, true
	}
	return val{}, false
}

// Service is one row of calendar.txt, served under /calendar_dates.
type Service struct {
	ServiceID val `json:"service_id"`
	Monday    val `json:"monday"`
	Tuesday   val `json:"tuesday"`
	Wednesday val `json:"wednesday"`
	Thursday  val `json:"thursday"`
	Friday    val `json:"friday"`
	Saturday  val `json:"saturday"`
	Sunday    val `json:"sunday"`
	StartDate val `json:"start_date"`
	EndDate   val `json:"end_date"`
}

func (s Service) Field(name string) (val, bool) {
	switch name {
	case "service_id":
		return s.ServiceID, true
	case "monday":
		return s.Monday, true
	case "tuesday":
		return s.Tuesday, true
	case "wednesday":
		return s.Wednesday, true
	case "thursday":
		return s.Thursday, true
	case "friday":
		return s.Friday, true
	case "saturday":
		return s.Saturday, true
	case "sunday":
		return s.Sunday, true
	case "start_date":
		return s.StartDate, true
	case "end_date":
		return s.EndDate, true
	}
	return val{}, false
}

// Days lists the weekday flags in calendar order.
func (s Service) Days() [7]val {
	return [7]val{s.Monday, s.Tuesday, s.Wednesday, s.Thursday, s.Friday, s.Saturday, s.Sunday}
}

// RouteStat is a per-route, per-direction service summary for one date.
// The frequency, speed and length rankings return rows of this shape.
type RouteStat struct {
	RouteID          val `json:"route_id"`
	RouteShortName   val `json:"route_short_name"`
	RouteLongName    val `json:"route_long_name"`
	RouteColor       val `json:"route_color"`
	RouteType        val `json:"route_type"`
	DirectionID      val `json:"direction_id"`
	NumTrips         val `json:"num_trips"`
	NumTripStarts    val `json:"num_trip_starts"`
	NumTripEnds      val `json:"num_trip_ends"`
	IsLoop           val `json:"is_loop"`
	IsBidirectional  val `json:"is_bidirectional"`
	StartTime        val `json:"start_time"`
	EndTime          val `json:"end_time"`
	MaxHeadway       val `json:"max_headway"`
	MinHeadway       val `json:"min_headway"`
	MeanHeadway      val `json:"mean_headway"`
	PeakNumTrips     val `json:"peak_num_trips"`
	PeakStartTime    val `json:"peak_start_time"`
	PeakEndTime      val `json:"peak_end_time"`
	ServiceDistance  val `json:"service_distance"`
	ServiceDuration  val `json:"service_duration"`
	ServiceSpeed     val `json:"service_speed"`
	MeanTripDistance val `json:"mean_trip_distance"`
	MeanTripDuration val `json:"mean_trip_duration"`
}

func (r RouteStat) Field(name string) (val, bool) {
	switch name {
	case "route_id":
		return r.RouteID, true
	case "route_short_name":
		return r.RouteShortName, true
	case "route_long_name":
		return r.RouteLongName, true
	case "route_color":
		return r.RouteColor, true
	case "route_type":
		return r.RouteType, true
	case "direction_id":
		return r.DirectionID, true
	case "num_trips":
		return r.NumTrips, true
	case "num_trip_starts":
		return r.NumTripStarts, true
	case "num_trip_ends":
		return r.NumTripEnds, true
	case "is_loop":
		return r.IsLoop, true
	case "is_bidirectional":
		return r.IsBidirectional, true
	case "start_time":
		return r.StartTime, true
	case "end_time":
		return r.EndTime, true
	case "max_headway":
		return r.MaxHeadway, true
	case "min_headway":
		return r.MinHeadway, true
	case "mean_headway":
		return r.MeanHeadway, true
	case "peak_num_trips":
		return r.PeakNumTrips, true
	case "peak_start_time":
		return r.PeakStartTime, true
	case "peak_end_time":
		return r.PeakEndTime, true
	case "service_distance":
		return r.ServiceDistance, true
	case "service_duration":
		return r.ServiceDuration, true
	case "service_speed":
		return r.ServiceSpeed, true
	case "mean_trip_distance":
		return r.MeanTripDistance, true
	case "mean_trip_duration":
		return r.MeanTripDuration, true
	}
	return val{}, false
}

// EfficientRoute adds the composite efficiency score and its inputs.
type EfficientRoute struct {
	RouteStat
	AvgStops        val `json:"avg_stops"`
	AvgTripSpeed    val `json:"avg_trip_speed"`
	EfficiencyScore val `json:"efficiency_score"`
}

func (r EfficientRoute) Field(name string) (val, bool) {
	switch name {
	case "avg_stops":
		return r.AvgStops, true
	case "avg_trip_speed":
		return r.AvgTripSpeed, true
	case "efficiency_score":
		return r.EfficiencyScore, true
	}
	return r.RouteStat.Field(name)
}

// PeakHourRoute counts a route's trips starting in the peak periods.
// TripCount arrives under "trip_id" because the count is taken over it.
type PeakHourRoute struct {
	RouteStat
	TripCount   val `json:"trip_id"`
	TimePeriods val `json:"time_period"`
}

func (r PeakHourRoute) Field(name string) (val, bool) {
	switch name {
	case "trip_id":
		return r.TripCount, true
	case "time_period":
		return r.TimePeriods, true
	}
	return r.RouteStat.Field(name)
}

// TripStat aggregates trip duration and speed over a time bucket. Exactly
// one of TimeOfDay and PeriodTime is set, depending on the grouping.
type TripStat struct {
	TimeOfDay    val `json:"time_of_day"`
	PeriodTime   val `json:"period_time"`
	NumTrips     val `json:"num_trips"`
	MeanDuration val `json:"mean_duration"`
	MinDuration  val `json:"min_duration"`
	MaxDuration  val `json:"max_duration"`
	MeanSpeed    val `json:"mean_speed"`
	MinSpeed     val `json:"min_speed"`
	MaxSpeed     val `json:"max_speed"`
}

func (t TripStat) Field(name string) (val, bool) {
	switch name {
	case "time_of_day":
		return t.TimeOfDay, true
	case "period_time":
		return t.PeriodTime, true
	case "num_trips":
		return t.NumTrips, true
	case "mean_duration":
		return t.MeanDuration, true
	case "min_duration":
		return t.MinDuration, true
	case "max_duration":
		return t.MaxDuration, true
	case "mean_speed":
		return t.MeanSpeed, true
	case "min_speed":
		return t.MinSpeed, true
	case "max_speed":
		return t.MaxSpeed, true
	}
	return val{}, false
}

// PlannedTrip is one trip serving both stops of a planner query.
type PlannedTrip struct {
	TripID         val `json:"trip_id"`
	RouteID        val `json:"route_id"`
	RouteShortName val `json:"route_short_name"`
	RouteLongName  val `json:"route_long_name"`
	RouteColor     val `json:"route_color"`
	DirectionID    val `json:"direction_id"`
	NumStops       val `json:"num_stops"`
	StartTime      val `json:"start_time"`
	EndTime        val `json:"end_time"`
	StartStopID    val `json:"start_stop_id"`
	EndStopID      val `json:"end_stop_id"`
	Distance       val `json:"distance"`
	Duration       val `json:"duration"`
	Speed          val `json:"speed"`
}

func (p PlannedTrip) Field(name string) (val, bool) {
	switch name {
	case "trip_id":
		return p.TripID, true
	case "route_id":
		return p.RouteID, true
	case "route_short_name":
		return p.RouteShortName, true
	case "route_long_name":
		return p.RouteLongName, true
	case "route_color":
		return p.RouteColor, true
	case "direction_id":
		return p.DirectionID, true
	case "num_stops":
		return p.NumStops, true
	case "start_time":
		return p.StartTime, true
	case "end_time":
		return p.EndTime, true
	case "start_stop_id":
		return p.StartStopID, true
	case "end_stop_id":
		return p.EndStopID, true
	case "distance":
		return p.Distance, true
	case "duration":
		return p.Duration, true
	case "speed":
		return p.Speed, true
	}
	return val{}, false
}

// RouteDelay is the bus-delay summary for one published line.
type RouteDelay struct {
	PublishedLineName val `json:"PublishedLineName"`
	AvgDelays         val `json:"AvgDelays"`
	TotalTrips        val `json:"TotalTrips"`
}

func (r RouteDelay) Field(name string) (val, bool) {
	switch name {
	case "PublishedLineName":
		return r.PublishedLineName, true
	case "AvgDelays":
		return r.AvgDelays, true
	case "TotalTrips":
		return r.TotalTrips, true
	}
	return val{}, false
}

// Artifact names a chart or map the analytics service rendered to disk.
type Artifact struct {
	Message val `json:"message"`
	Path    val `json:"path"`
}

func (a Artifact) Field(name string) (val, bool) {
	switch name {
	case "message":
		return a.Message, true
	case "path":
		return a.Path, true
	}
	return val{}, false
}
