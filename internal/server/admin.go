package server

import (
	"net/http"
	"strconv"

	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/device"
	"github.com/ruckusbots/ruckus/internal/engine"
)

type boardSummary struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Flags  int    `json:"flags"`
}

type gameRequest struct {
	Board        string   `json:"board"`
	Players      int      `json:"players"`
	ShowRegister *bool    `json:"show_register"`
	EdgeControl  *bool    `json:"edge_control"`
	Flags        [][2]int `json:"flags"`
}

type timerRequest struct {
	Enabled bool `json:"enabled"`
}

type entryRequest struct {
	Player int              `json:"player"`
	X      int              `json:"x"`
	Y      int              `json:"y"`
	Facing core.Orientation `json:"facing"`
}

type updateRequest struct {
	Lives  int              `json:"lives"`
	Damage int              `json:"damage"`
	X      int              `json:"x"`
	Y      int              `json:"y"`
	Facing core.Orientation `json:"facing"`
	Flags  int              `json:"flags"`
	Robot  string           `json:"robot"`
}

type configRequest struct {
	Option int    `json:"option"`
	Value  string `json:"value"`
	Name   string `json:"name"`
}

func (s *Server) handleBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.boards.LoadAll()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]boardSummary, len(boards))
	for i, b := range boards {
		out[i] = boardSummary{Name: b.Name, Width: b.Width, Height: b.Height, Flags: len(b.Flags)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetupGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.boards.LoadByName(req.Board)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	t := s.Defaults
	if req.Players > 0 {
		t.Players = req.Players
	}
	if req.ShowRegister != nil {
		t.ShowRegister = *req.ShowRegister
	}
	if req.EdgeControl != nil {
		t.EdgeControl = *req.EdgeControl
	}
	t.Flags = nil
	for _, f := range req.Flags {
		t.Flags = append(t.Flags, core.C(f[0], f[1]))
	}

	if err := s.game.SetupGame(b, t); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Status())
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	if err := s.game.StartGame(); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Status())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	s.game.ResetGame(all)
	writeJSON(w, http.StatusOK, s.game.Status())
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	var req timerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.game.SetTimer(req.Enabled)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnterPlayers(w http.ResponseWriter, r *http.Request) {
	var req []entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	entries := make([]engine.Entry, len(req))
	for i, e := range req {
		entries[i] = engine.Entry{Player: e.Player, At: core.C(e.X, e.Y), Facing: e.Facing}
	}
	if err := s.game.EnterPlayers(entries); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Status())
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	player, err := pathInt(r, "player")
	var req updateRequest
	if err == nil {
		err = decodeJSON(w, r, &req)
	}
	if err == nil {
		err = s.game.UpdatePlayer(player, engine.PlayerUpdate{
			Lives:  req.Lives,
			Damage: req.Damage,
			At:     core.C(req.X, req.Y),
			Facing: req.Facing,
			Flags:  req.Flags,
			Robot:  req.Robot,
		})
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Status())
}

func (s *Server) handleRedeal(w http.ResponseWriter, r *http.Request) {
	player, err := pathInt(r, "player")
	if err == nil {
		err = s.game.RedealPlayer(player)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnterTuning(w http.ResponseWriter, r *http.Request) {
	bench, err := s.game.EnterTuning()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bench)
}

func (s *Server) handleFinishTuning(w http.ResponseWriter, _ *http.Request) {
	s.game.FinishTuning()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnterSetup(w http.ResponseWriter, r *http.Request) {
	bot, err := pathInt(r, "bot")
	if err == nil {
		err = s.game.EnterSetup(bot)
	}
	s.tuningReply(w, r, err)
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	bot, err := pathInt(r, "bot")
	var req configRequest
	if err == nil {
		err = decodeJSON(w, r, &req)
	}
	if err == nil {
		err = s.game.ConfigureRobot(bot, device.SetupOption(req.Option), req.Value, req.Name)
	}
	s.tuningReply(w, r, err)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	bot, err := pathInt(r, "bot")
	var settings map[string]any
	if err == nil {
		settings, err = s.game.RobotSettings(bot)
	}
	if err != nil {
		s.tuningReply(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// tuningReply answers a tuning request. A robot that cannot be reached is
// a gateway failure, not a server fault.
func (s *Server) tuningReply(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case statusFor(err) == http.StatusInternalServerError:
		s.logger.Warn("robot tuning failed", "path", r.URL.Path, "error", err)
		s.failWith(w, r, err, http.StatusBadGateway)
	default:
		s.fail(w, r, err)
	}
}
