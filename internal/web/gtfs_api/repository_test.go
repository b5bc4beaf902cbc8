package gtfs_api

import (
	"strings"
	"testing"
)

func TestQueries(t *testing.T) {
	if !strings.HasPrefix(routesQuery, "SELECT r.route_id, r.agency_id,") {
		t.Errorf("unexpected routes select %s", routesQuery)
	}
	if !strings.Contains(routesQuery, "WHERE EXISTS (SELECT 1 FROM trips t WHERE t.route_id = r.route_id)") {
		t.Errorf("routes must skip routes without trips: %s", routesQuery)
	}
	if !strings.HasSuffix(stopTimesQuery, "ORDER BY NULLIF(st.stop_sequence, '')::integer") {
		t.Errorf("stop times must be ordered by sequence: %s", stopTimesQuery)
	}
	if got := likeEscaper.Replace(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("unexpected escape %s", got)
	}
}
