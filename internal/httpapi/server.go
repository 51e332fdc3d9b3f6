// Package httpapi is the REST surface over the player store and the save
// service. Every response uses the {success, message, data} envelope.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"pokestate/internal/events"
	"pokestate/internal/logger"
	"pokestate/internal/metrics"
	"pokestate/internal/player"
	"pokestate/internal/save"
)

type Server struct {
	players     *player.Store
	saves       *save.Service
	hub         *events.Hub
	metrics     *metrics.Collector
	log         *logger.Logger
	version     string
	gameVersion string
	handler     http.Handler
}

type Option func(*Server)

// WithHub mounts the change feed at /events and publishes save events to it.
func WithHub(hub *events.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

// WithMetrics records per-request metrics and mounts /metrics.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) { s.metrics = m }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Server) { s.log = log }
}

func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithGameVersion sets the game version used when a save request names none.
func WithGameVersion(v string) Option {
	return func(s *Server) { s.gameVersion = v }
}

func New(players *player.Store, saves *save.Service, opts ...Option) *Server {
	s := &Server{
		players: players,
		saves:   saves,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	if s.hub != nil {
		r.HandleFunc("/events", s.hub.ServeWS).Methods(http.MethodGet)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
		r.Handle("/metrics/prometheus", s.metrics.PrometheusHandler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/api", s.handleHealth).Methods(http.MethodGet)
	s.routes(r.PathPrefix("/api").Subrouter())
	s.routes(r)
	s.handler = s.logRequests(withCORS(r))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/players", s.handleListPlayers).Methods(http.MethodGet)
	r.HandleFunc("/players", s.handleCreatePlayer).Methods(http.MethodPost)
	r.HandleFunc("/players/{id}", s.handleGetPlayer).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}", s.handleUpdatePlayer).Methods(http.MethodPut)
	r.HandleFunc("/players/{id}", s.handleDeletePlayer).Methods(http.MethodDelete)

	r.HandleFunc("/players/{id}/team", s.handleGetTeam).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/team", s.handleAddTeamMember).Methods(http.MethodPost)
	r.HandleFunc("/players/{id}/team/{index}", s.handleUpdateTeamMember).Methods(http.MethodPut)
	r.HandleFunc("/players/{id}/team/{index}", s.handleRemoveTeamMember).Methods(http.MethodDelete)

	r.HandleFunc("/players/{id}/location", s.handleGetLocation).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/location", s.handleSetLocation).Methods(http.MethodPut)

	r.HandleFunc("/players/{id}/thoughts", s.handleListThoughts).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/thoughts", s.handleAddThought).Methods(http.MethodPost)

	r.HandleFunc("/players/{id}/battles", s.handleListBattles).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/battles", s.handleStartBattle).Methods(http.MethodPost)
	r.HandleFunc("/players/{id}/battles/{battleId}", s.handleGetBattle).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/battles/{battleId}", s.handleConcludeBattle).Methods(http.MethodPut)

	r.HandleFunc("/players/{id}/matchups", s.handleListMatchups).Methods(http.MethodGet)
	r.HandleFunc("/players/{id}/matchups/{opponentId}", s.handleGetMatchup).Methods(http.MethodGet)

	r.HandleFunc("/saves", s.handleListSaves).Methods(http.MethodGet)
	r.HandleFunc("/saves", s.handleCreateSave).Methods(http.MethodPost)
	r.HandleFunc("/saves/{id}", s.handleGetSave).Methods(http.MethodGet)
	r.HandleFunc("/saves/{id}", s.handleUpdateSave).Methods(http.MethodPut)
	r.HandleFunc("/saves/{id}", s.handleDeleteSave).Methods(http.MethodDelete)
	r.HandleFunc("/saves/{id}/load", s.handleLoadSave).Methods(http.MethodPost)
	r.HandleFunc("/saves/{id}/backup", s.handleBackupSave).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "pokestate is running", map[string]any{
		"service": "pokestate",
		"version": s.version,
		"players": s.players.Count(),
	})
}

func (s *Server) publish(eventType, subjectID, detail string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(events.NewEvent(eventType, subjectID, detail))
}
