package gtfs_web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

type ServerOptions struct {
	ListenAddr  string
	Catalog     *panel.Catalog
	Cities      []City
	PollSeconds int
	MaxSessions int
	DefaultDate string
	Location    *time.Location
	Now         func() time.Time
	Log         zerolog.Logger
	Metrics     *common.ServerMetrics
}

type GtfsWebServer struct {
	server   *http.Server
	router   chi.Router
	renderer *Renderer
	sessions *SessionStore
	catalog  *panel.Catalog
	cities   []City
	poll     int
	defaults ParamDefaults
	now      func() time.Time
	log      zerolog.Logger
}

func NewGtfsWebServer(opts ServerOptions) (*GtfsWebServer, error) {
	if opts.Catalog == nil {
		return nil, errors.New("web server needs a panel catalog")
	}
	if len(opts.Cities) == 0 {
		opts.Cities = DefaultCities()
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 512
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	sessions, err := NewSessionStore(opts.MaxSessions, opts.Cities[0].Name, opts.Log)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(common.RequestLogger(opts.Log))
	router.Use(opts.Metrics.Middleware)
	router.Use(middleware.Recoverer)

	server := &GtfsWebServer{
		server: &http.Server{
			Addr:              opts.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		router:   router,
		renderer: renderer,
		sessions: sessions,
		catalog:  opts.Catalog,
		cities:   opts.Cities,
		poll:     opts.PollSeconds,
		defaults: ParamDefaults{Date: opts.DefaultDate},
		now:      func() time.Time { return now().In(loc) },
		log:      opts.Log,
	}

	router.Get("/", func(writer http.ResponseWriter, request *http.Request) {
		http.Redirect(writer, request, "/dashboard", http.StatusFound)
	})
	router.Get("/healthz", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = writer.Write([]byte("ok\n"))
	})
	router.Get("/dashboard", server.handleDashboard)
	router.Post("/city", server.handleCity)
	router.Get("/panel", server.handlePanelPartial)
	router.Post("/panel/open/{name}", server.handleOpenPanel)
	router.Post("/panel/{action}", server.handlePanelAction)

	return server, nil
}

func (server *GtfsWebServer) Handler() http.Handler {
	return server.router
}

func (server *GtfsWebServer) startHosting() {
	err := server.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		server.log.Fatal().Err(err).Msg("web server error")
	}
}

// Serve blocks until ctx is done, then shuts the listener down and closes
// every session's panel.
func (server *GtfsWebServer) Serve(ctx context.Context) {
	server.log.Info().Str("addr", server.server.Addr).Msg("dashboard listening")

	go server.startHosting()
	<-ctx.Done()

	server.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.server.Shutdown(shutdownCtx); err != nil {
		server.log.Warn().Err(err).Msg("shutdown")
	}
	server.sessions.Close()
}
