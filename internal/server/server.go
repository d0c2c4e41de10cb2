// Package server exposes the admin API: connection checks, schema
// autocompletion, settings management and the algorithm catalog.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/config"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
	"github.com/blesswinsamuel/sql-user-backend/internal/query"
)

// Server contains router and handler methods.
type Server struct {
	router *mux.Router
	logger zerolog.Logger
	config *config.Config

	props *properties.Properties
	cache cache.Cache
	data  *query.DataAccess
	tr    platform.Translator

	// reload is called after the settings change so the owner can rebuild
	// the generated statements and drop the stale connection.
	reload func()
}

// NewServer creates a new server object and builds the router.
func NewServer(
	cfg *config.Config, logger zerolog.Logger,
	props *properties.Properties, c cache.Cache, data *query.DataAccess,
	tr platform.Translator, reload func(),
) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: logger,
		config: cfg,
		props:  props,
		cache:  c,
		data:   data,
		tr:     tr,
		reload: reload,
	}

	s.buildRoutes()

	err := s.router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, _ := route.GetPathTemplate()
		methods, _ := route.GetMethods()
		s.logger.Debug().
			Str("path", pathTemplate).
			Str("method", strings.Join(methods, ",")).
			Msg("route registered")
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("route walk failed")
	}

	return s
}

func (s *Server) Start() {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.HTTPPort)
	s.logger.Info().Str("addr", addr).Msg("admin api listening")
	if err := http.ListenAndServe(addr, s); err != nil {
		s.logger.Panic().Err(err).Msg("failed to start server")
	}
}

func (s *Server) buildRoutes() {
	s.router.Use(prometheusMiddleware)
	s.router.Use(s.loggerMiddleware)

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/verify-connection", s.handleVerifyConnection).Methods("POST")
	api.HandleFunc("/tables", s.handleTables).Methods("GET")
	api.HandleFunc("/tables/{table}/columns", s.handleColumns).Methods("GET")
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleSaveSettings).Methods("POST")
	api.HandleFunc("/clear-cache", s.handleClearCache).Methods("POST")
	api.HandleFunc("/algorithms", s.handleAlgorithms).Methods("GET")
	api.HandleFunc("/algorithms/{id}/params", s.handleAlgorithmParams).Methods("GET")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, "ok")
}

func (s *Server) loggerMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug().
			Str("handler", r.URL.Path).
			Str("method", r.Method).
			Str("source_ip", r.RemoteAddr).
			Msg("received request")
		h.ServeHTTP(w, r)
	})
}
