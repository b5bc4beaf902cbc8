package gtfs_api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// missingValue stands in for a column the feed left empty.
const missingValue = "NA"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RouteTripsResponse struct {
	RouteID string `json:"route_id"`
	Trips   []Row  `json:"trips"`
}

type HealthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"timestamp"`
	Error    string    `json:"error,omitempty"`
}

func fillMissing(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	for _, row := range rows {
		for key, value := range row {
			if value == nil {
				row[key] = missingValue
			}
		}
	}
	return rows
}

func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}

func (server *GtfsApiServer) fail(writer http.ResponseWriter, request *http.Request, err error) {
	server.log.Error().Err(err).Str("path", request.URL.Path).Msg("query failed")
	writeJSON(writer, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

// list serves every row the query returns, an empty array included.
func (server *GtfsApiServer) list(query func(context.Context) ([]Row, error)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		rows, err := query(request.Context())
		if err != nil {
			server.fail(writer, request, err)
			return
		}
		writer.Header().Set("Cache-Control", server.cacheControl)
		writeJSON(writer, http.StatusOK, fillMissing(rows))
	}
}

// lookup serves the rows matching the URL param, or 404 with notFound.
func (server *GtfsApiServer) lookup(param, notFound string, query func(context.Context, string) ([]Row, error)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		rows, err := query(request.Context(), chi.URLParam(request, param))
		if err != nil {
			server.fail(writer, request, err)
			return
		}
		if len(rows) == 0 {
			writeJSON(writer, http.StatusNotFound, ErrorResponse{Error: notFound})
			return
		}
		writer.Header().Set("Cache-Control", server.cacheControl)
		writeJSON(writer, http.StatusOK, fillMissing(rows))
	}
}

func (server *GtfsApiServer) handleWelcome(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, MessageResponse{Message: "Welcome to the GTFS API of New York City!"})
}

func (server *GtfsApiServer) handleRoutesWithTrips(writer http.ResponseWriter, request *http.Request) {
	routeID := request.URL.Query().Get("route_id")
	if routeID == "" {
		writeJSON(writer, http.StatusBadRequest, ErrorResponse{Error: "route_id is required"})
		return
	}

	trips, err := server.repo.TripsByRoute(request.Context(), routeID)
	if err != nil {
		server.fail(writer, request, err)
		return
	}
	if len(trips) == 0 {
		writeJSON(writer, http.StatusNotFound, ErrorResponse{Error: "No trips found for the given route_id"})
		return
	}
	writer.Header().Set("Cache-Control", server.cacheControl)
	writeJSON(writer, http.StatusOK, RouteTripsResponse{RouteID: routeID, Trips: fillMissing(trips)})
}

func (server *GtfsApiServer) handleHealth(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 2*time.Second)
	defer cancel()

	if err := server.repo.Ping(ctx); err != nil {
		writeJSON(writer, http.StatusServiceUnavailable, HealthResponse{
			Status:   "error",
			Database: "disconnected",
			Time:     time.Now().UTC(),
			Error:    err.Error(),
		})
		return
	}
	writeJSON(writer, http.StatusOK, HealthResponse{Status: "ok", Database: "connected", Time: time.Now().UTC()})
}
