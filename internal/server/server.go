// Package server is the HTTP boundary of a table: robot callbacks, the
// observer websocket and the player and game master endpoints.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ruckusbots/ruckus/internal/board"
	"github.com/ruckusbots/ruckus/internal/engine"
	"github.com/ruckusbots/ruckus/internal/game"
)

const shutdownTimeout = 5 * time.Second

// Boards lists and finds boards.
type Boards interface {
	LoadAll() ([]*board.Board, error)
	LoadByName(name string) (*board.Board, error)
}

// Server routes HTTP requests to one game.
type Server struct {
	game   *engine.Game
	boards Boards
	events http.Handler
	logger *log.Logger
	mux    *http.ServeMux

	// Defaults fills in what a setup request leaves out.
	Defaults engine.Table
}

// New creates a server. events serves the observer websocket.
func New(g *engine.Game, boards Boards, events http.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		game:     g,
		boards:   boards,
		events:   events,
		logger:   logger,
		mux:      http.NewServeMux(),
		Defaults: engine.Table{Players: 4},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /bot/{$}", s.handleBotIndex)
	s.mux.HandleFunc("PUT /bot/{$}", s.handleBotRegister)
	s.mux.HandleFunc("POST /bot/Done/{$}", s.handleBotDone)

	if s.events != nil {
		s.mux.Handle("GET /ws", s.events)
	}
	s.mux.HandleFunc("GET /status", s.handleStatus)

	s.mux.HandleFunc("POST /player/{$}", s.handleAddPlayer)
	s.mux.HandleFunc("POST /player/{player}/setup", s.handleSetupPlayer)
	s.mux.HandleFunc("GET /player/{player}/hand", s.handleHand)
	s.mux.HandleFunc("POST /player/{player}/program", s.handleProgram)

	s.mux.HandleFunc("GET /admin/boards", s.handleBoards)
	s.mux.HandleFunc("POST /admin/game", s.handleSetupGame)
	s.mux.HandleFunc("POST /admin/game/start", s.handleStartGame)
	s.mux.HandleFunc("POST /admin/game/reset", s.handleReset)
	s.mux.HandleFunc("POST /admin/game/timer", s.handleTimer)
	s.mux.HandleFunc("POST /admin/players/enter", s.handleEnterPlayers)
	s.mux.HandleFunc("PUT /admin/players/{player}", s.handleUpdatePlayer)
	s.mux.HandleFunc("POST /admin/players/{player}/redeal", s.handleRedeal)
	s.mux.HandleFunc("POST /admin/tuning", s.handleEnterTuning)
	s.mux.HandleFunc("DELETE /admin/tuning", s.handleFinishTuning)
	s.mux.HandleFunc("POST /admin/tuning/{bot}/setup", s.handleEnterSetup)
	s.mux.HandleFunc("POST /admin/tuning/{bot}/config", s.handleConfigure)
	s.mux.HandleFunc("GET /admin/tuning/{bot}/settings", s.handleSettings)
}

// Handler returns the server's routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}

// ListenAndServe serves until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Status())
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownPlayer),
		errors.Is(err, engine.ErrUnknownRobot),
		errors.Is(err, board.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidProgram),
		errors.Is(err, engine.ErrInvalidPosition),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNoBoard),
		errors.Is(err, engine.ErrNotEnoughRobots),
		errors.Is(err, engine.ErrGameNotStarted),
		errors.Is(err, engine.ErrGameStarted),
		errors.Is(err, engine.ErrGameFull),
		errors.Is(err, engine.ErrRobotUnavailable),
		errors.Is(err, engine.ErrPositionTaken),
		errors.Is(err, engine.ErrBotless),
		errors.Is(err, engine.ErrNotTuning),
		errors.Is(err, game.ErrDeckExhausted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.failWith(w, r, err, statusFor(err))
}

func (s *Server) failWith(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, name)
	}
	return n, nil
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade through.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer cannot be hijacked")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
