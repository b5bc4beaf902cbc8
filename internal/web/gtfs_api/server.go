package gtfs_api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/common"
)

type ServerOptions struct {
	ListenAddr     string
	Repository     Repository
	AllowedOrigins []string
	// CacheMaxAge is how long clients may reuse a table read. The tables
	// only change when a feed is ingested.
	CacheMaxAge time.Duration
	Log         zerolog.Logger
	Metrics     *common.ServerMetrics
}

type GtfsApiServer struct {
	server       *http.Server
	router       chi.Router
	repo         Repository
	cacheControl string
	log          zerolog.Logger
}

func NewGtfsApiServer(opts ServerOptions) (*GtfsApiServer, error) {
	if opts.Repository == nil {
		return nil, errors.New("api server needs a repository")
	}
	cacheControl := "no-cache"
	if opts.CacheMaxAge > 0 {
		cacheControl = "public, max-age=" + strconv.Itoa(int(opts.CacheMaxAge.Seconds()))
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(common.RequestLogger(opts.Log))
	router.Use(opts.Metrics.Middleware)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match"},
		MaxAge:         300,
	}))

	server := &GtfsApiServer{
		server: &http.Server{
			Addr:              opts.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		router:       router,
		repo:         opts.Repository,
		cacheControl: cacheControl,
		log:          opts.Log,
	}

	repo := opts.Repository
	router.Get("/", server.handleWelcome)
	router.Get("/healthz", server.handleHealth)
	router.Get("/routes", server.list(repo.Routes))
	router.Get("/route/{route_id}", server.lookup("route_id", "Route not found", repo.RouteByID))
	router.Get("/routes/search/{route_name}", server.lookup("route_name", "No routes found matching the short name", repo.SearchRoutes))
	router.Get("/routes_with_trips", server.handleRoutesWithTrips)
	router.Get("/stops", server.list(repo.Stops))
	router.Get("/stop/{stop_id}", server.lookup("stop_id", "Stop not found", repo.StopByID))
	router.Get("/trips", server.list(repo.Trips))
	router.Get("/trip/{trip_id}", server.lookup("trip_id", "Trip not found", repo.TripByID))
	router.Get("/stop_times/trip/{trip_id}", server.lookup("trip_id", "No stop times found for this trip", repo.StopTimesByTrip))
	router.Get("/calendar_dates", server.list(repo.Calendar))

	router.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})

	return server, nil
}

func (server *GtfsApiServer) Handler() http.Handler {
	return server.router
}

func (server *GtfsApiServer) startHosting() {
	err := server.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		server.log.Fatal().Err(err).Msg("api server error")
	}
}

// Serve blocks until ctx is done, then shuts the listener down.
func (server *GtfsApiServer) Serve(ctx context.Context) {
	server.log.Info().Str("addr", server.server.Addr).Msg("api listening")

	go server.startHosting()
	<-ctx.Done()

	server.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.server.Shutdown(shutdownCtx); err != nil {
		server.log.Warn().Err(err).Msg("shutdown")
	}
}
