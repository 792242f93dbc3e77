// Package server exposes the lobby over a websocket and a small HTTP surface
// for health checks and finished match records.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/nenshoukei/zombals-sub000/internal/lobby"
	"github.com/nenshoukei/zombals-sub000/internal/repository"
)

const (
	defaultReadLimit    = 64 << 10
	defaultPongWait     = 60 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultSendBuffer   = 256
	defaultRateLimit    = 20
	defaultRateBurst    = 40
)

// Config holds the socket settings.
type Config struct {
	ReadLimit      int64
	PongWait       time.Duration
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
}

func (c *Config) setDefaults() {
	if c.ReadLimit <= 0 {
		c.ReadLimit = defaultReadLimit
	}
	if c.PongWait <= 0 {
		c.PongWait = defaultPongWait
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 9 / 10
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	if c.RateLimit <= 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = defaultRateBurst
	}
}

// Server routes sockets to the lobby.
type Server struct {
	cfg      Config
	lobby    *lobby.Lobby
	records  repository.RecordStore
	auth     *Authenticator
	logger   *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// New creates a Server. records may be nil, in which case every record lookup
// is a miss.
func New(cfg Config, l *lobby.Lobby, records repository.RecordStore, auth *Authenticator, logger *zap.Logger) *Server {
	cfg.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		lobby:   l,
		records: records,
		auth:    auth,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[*conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.serveWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	r.HandleFunc("/records/{id}", s.serveRecord).Methods(http.MethodGet)
	return r
}

// Shutdown closes every socket. The lobby sees each as a disconnect.
func (s *Server) Shutdown() {
	s.cancel()
	s.mu.Lock()
	conns := lo.Keys(s.conns)
	s.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// Connections returns the number of open sockets.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(s.cfg.AllowedOrigins, r.Header.Get("Origin"))
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	userID, err := s.auth.Authenticate(r)
	if err != nil {
		s.logger.Debug("socket rejected", zap.String("remote", r.RemoteAddr), zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	c := newConn(s, ws, userID, requestLanguage(r))
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	c.logger.Info("socket opened", zap.String("remote", r.RemoteAddr), zap.String("lang", c.lang.String()))

	s.lobby.Attach(c)
	go c.writePump()
	go c.readPump(s.ctx)
}

func (s *Server) detach(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.lobby.Detach(c)
	c.logger.Info("socket closed")
}

// requestLanguage picks the client language from the "lang" query parameter
// or Accept-Language.
func requestLanguage(r *http.Request) language.Tag {
	if q := r.URL.Query().Get("lang"); q != "" {
		if tag, err := language.Parse(q); err == nil {
			return tag
		}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	return tags[0]
}

type healthResponse struct {
	Status      string      `json:"status"`
	Maintenance bool        `json:"maintenance"`
	Connections int         `json:"connections"`
	Lobby       lobby.Stats `json:"lobby"`
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Maintenance: s.lobby.Maintenance(),
		Connections: s.Connections(),
		Lobby:       s.lobby.Stats(),
	})
}

func (s *Server) serveRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.records == nil {
		http.NotFound(w, r)
		return
	}
	rec, err := s.records.GetRecord(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.NotFound(w, r)
	case err != nil:
		s.logger.Error("failed to load record", zap.String("game_id", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
