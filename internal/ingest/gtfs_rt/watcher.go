package gtfs_rt

import (
	"context"
	"fmt"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/fetch"
)

type Snapshot struct {
	FetchedAt     time.Time
	FeedTimestamp uint64
	EntityCount   int
}

type TripUpdateRecord struct {
	TripId               string
	RouteId              string
	StartDate            string
	StartTime            string
	DirectionId          uint32
	ScheduleRelationship string
}

func TripUpdateColumns() []string {
	return []string{"snapshot_id", "trip_id", "route_id", "start_date", "start_time", "direction_id", "schedule_relationship"}
}

func (entry *TripUpdateRecord) ToAnyArray(snapshotId int64) []any {
	return []any{
		snapshotId,
		entry.TripId,
		entry.RouteId,
		entry.StartDate,
		entry.StartTime,
		int32(entry.DirectionId),
		entry.ScheduleRelationship,
	}
}

// StopTimeUpdateRecord times are unix seconds, 0 when the feed gave none.
type StopTimeUpdateRecord struct {
	TripId       string
	StopId       string
	StopSequence uint32
	ArrivalUTC   int64
	DepartureUTC int64
	ArrivalDelay int32
}

func StopTimeUpdateColumns() []string {
	return []string{"snapshot_id", "trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time", "arrival_delay"}
}

func (entry *StopTimeUpdateRecord) ToAnyArray(snapshotId int64) []any {
	return []any{
		snapshotId,
		entry.TripId,
		entry.StopId,
		int32(entry.StopSequence),
		entry.ArrivalUTC,
		entry.DepartureUTC,
		entry.ArrivalDelay,
	}
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot Snapshot, trips []TripUpdateRecord, stops []StopTimeUpdateRecord) (int64, error)
}

// FlattenFeedMessage keeps every live trip_update entity and its stop time
// updates, in feed order.
func FlattenFeedMessage(message *gtfs.FeedMessage) ([]TripUpdateRecord, []StopTimeUpdateRecord) {
	trips := make([]TripUpdateRecord, 0, len(message.GetEntity()))
	var stops []StopTimeUpdateRecord

	for _, entity := range message.GetEntity() {
		tripUpdate := entity.GetTripUpdate()
		if tripUpdate == nil || entity.GetIsDeleted() {
			continue
		}
		trip := tripUpdate.GetTrip()

		trips = append(trips, TripUpdateRecord{
			TripId:               trip.GetTripId(),
			RouteId:              trip.GetRouteId(),
			StartDate:            trip.GetStartDate(),
			StartTime:            trip.GetStartTime(),
			DirectionId:          trip.GetDirectionId(),
			ScheduleRelationship: trip.GetScheduleRelationship().String(),
		})

		for _, stopTimeUpdate := range tripUpdate.GetStopTimeUpdate() {
			record := StopTimeUpdateRecord{
				TripId:       trip.GetTripId(),
				StopId:       stopTimeUpdate.GetStopId(),
				StopSequence: stopTimeUpdate.GetStopSequence(),
			}
			if arrival := stopTimeUpdate.GetArrival(); arrival != nil {
				record.ArrivalUTC = arrival.GetTime()
				record.ArrivalDelay = arrival.GetDelay()
			}
			if departure := stopTimeUpdate.GetDeparture(); departure != nil {
				record.DepartureUTC = departure.GetTime()
			}
			stops = append(stops, record)
		}
	}
	return trips, stops
}

type GtfsRtWatcher struct {
	feed     *fetch.Client
	store    SnapshotStore
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewGtfsRtWatcher(feed *fetch.Client, store SnapshotStore, interval time.Duration, log zerolog.Logger) *GtfsRtWatcher {
	return &GtfsRtWatcher{
		feed:     feed,
		store:    store,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// SampleEndpoint fetches one feed message and stores it as a snapshot.
func (watcher *GtfsRtWatcher) SampleEndpoint(ctx context.Context) (int64, error) {
	benchmarker := common.NewBenchmarker(watcher.log, "sample-endpoint")
	defer benchmarker.Close()

	fetchedAt := watcher.now().UTC()
	body, err := watcher.feed.Get(ctx, "", nil)
	if err != nil {
		return 0, err
	}

	feedMessage := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feedMessage); err != nil {
		return 0, fmt.Errorf("decode feed from %s: %w", watcher.feed.BaseURL(), err)
	}

	trips, stops := FlattenFeedMessage(feedMessage)
	snapshot := Snapshot{
		FetchedAt:     fetchedAt,
		FeedTimestamp: feedMessage.GetHeader().GetTimestamp(),
		EntityCount:   len(feedMessage.GetEntity()),
	}
	snapshotId, err := watcher.store.SaveSnapshot(ctx, snapshot, trips, stops)
	if err != nil {
		return 0, fmt.Errorf("store snapshot: %w", err)
	}

	watcher.log.Info().
		Int64("snapshot_id", snapshotId).
		Int("entities", snapshot.EntityCount).
		Int("trip_updates", len(trips)).
		Int("stop_time_updates", len(stops)).
		Msg("sampled realtime feed")
	return snapshotId, nil
}

// Watch samples once right away and then every interval until ctx is
// done. A failed sample is logged and the next tick tries again.
func (watcher *GtfsRtWatcher) Watch(ctx context.Context) error {
	ticker := time.NewTicker(watcher.interval)
	defer ticker.Stop()

	for {
		if _, err := watcher.SampleEndpoint(ctx); err != nil && ctx.Err() == nil {
			watcher.log.Warn().Err(err).Msg("sample failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
