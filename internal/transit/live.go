package transit

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"tarediiran-industries.com/transit-dashboard/internal/collection"
)

// TripUpdate is one trip of a GTFS-realtime feed snapshot, flattened to
// the first upcoming stop.
type TripUpdate struct {
	TripID               val
	RouteID              val
	StartDate            val
	StartTime            val
	DirectionID          val
	ScheduleRelationship val
	StopCount            val
	NextStopID           val
	NextArrival          val
	Delay                val
	VehicleID            val
}

func (t TripUpdate) Field(name string) (val, bool) {
	switch name {
	case "trip_id":
		return t.TripID, true
	case "route_id":
		return t.RouteID, true
	case "start_date":
		return t.StartDate, true
	case "start_time":
		return t.StartTime, true
	case "direction_id":
		return t.DirectionID, true
	case "schedule_relationship":
		return t.ScheduleRelationship, true
	case "stop_count":
		return t.StopCount, true
	case "next_stop_id":
		return t.NextStopID, true
	case "next_arrival":
		return t.NextArrival, true
	case "delay":
		return t.Delay, true
	case "vehicle_id":
		return t.VehicleID, true
	}
	return val{}, false
}

func optional(s string) val {
	if s == "" {
		return val{}
	}
	return collection.String(s)
}

// TripUpdatesFromFeed keeps the trip_update entities of message in feed
// order. Arrival times are rendered in loc, or UTC when loc is nil.
func TripUpdatesFromFeed(loc *time.Location) func(*gtfs.FeedMessage) []TripUpdate {
	if loc == nil {
		loc = time.UTC
	}
	return func(message *gtfs.FeedMessage) []TripUpdate {
		out := make([]TripUpdate, 0, len(message.GetEntity()))
		for _, entity := range message.GetEntity() {
			update := entity.GetTripUpdate()
			if update == nil || entity.GetIsDeleted() {
				continue
			}
			trip := update.GetTrip()

			record := TripUpdate{
				TripID:               optional(trip.GetTripId()),
				RouteID:              optional(trip.GetRouteId()),
				StartDate:            optional(trip.GetStartDate()),
				StartTime:            optional(trip.GetStartTime()),
				ScheduleRelationship: collection.String(trip.GetScheduleRelationship().String()),
				StopCount:            collection.Int(int64(len(update.GetStopTimeUpdate()))),
				VehicleID:            optional(update.GetVehicle().GetId()),
			}
			if trip.DirectionId != nil {
				record.DirectionID = collection.Int(int64(trip.GetDirectionId()))
			}
			if update.Delay != nil {
				record.Delay = collection.Int(int64(update.GetDelay()))
			}

			if stops := update.GetStopTimeUpdate(); len(stops) > 0 {
				next := stops[0]
				record.NextStopID = optional(next.GetStopId())

				event := next.GetArrival()
				if event == nil {
					event = next.GetDeparture()
				}
				if event != nil && event.GetTime() > 0 {
					record.NextArrival = collection.String(time.Unix(event.GetTime(), 0).In(loc).Format("15:04:05"))
				}
				if record.Delay.IsNull() && event != nil && event.Delay != nil {
					record.Delay = collection.Int(int64(event.GetDelay()))
				}
			}

			out = append(out, record)
		}
		return out
	}
}
