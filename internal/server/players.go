package server

import (
	"net/http"

	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/game"
)

type playerNumber struct {
	Player int `json:"player"`
}

type seatRequest struct {
	Robot  string           `json:"robot"`
	X      int              `json:"x"`
	Y      int              `json:"y"`
	Facing core.Orientation `json:"facing"`
}

type handResponse struct {
	Cards []game.Card `json:"cards"`
}

type programRequest struct {
	Cards    []int `json:"cards"`
	Shutdown bool  `json:"shutdown"`
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	n, err := s.game.AddPlayer()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, playerNumber{Player: n})
}

func (s *Server) handleSetupPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := pathInt(r, "player")
	var req seatRequest
	if err == nil {
		err = decodeJSON(w, r, &req)
	}
	if err == nil {
		err = s.game.SetupPlayer(player, req.Robot, core.C(req.X, req.Y), req.Facing)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHand(w http.ResponseWriter, r *http.Request) {
	player, err := pathInt(r, "player")
	var cards []game.Card
	if err == nil {
		cards, err = s.game.DealPlayer(player)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cards == nil {
		cards = []game.Card{}
	}
	writeJSON(w, http.StatusOK, handResponse{Cards: cards})
}

// handleProgram accepts a player's program. The round the program
// completes runs after the response is sent.
func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	player, err := pathInt(r, "player")
	var req programRequest
	if err == nil {
		err = decodeJSON(w, r, &req)
	}
	if err == nil {
		err = s.game.CheckProgram(player, req.Cards)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	go func() {
		if err := s.game.SubmitMove(player, req.Cards, req.Shutdown); err != nil {
			s.logger.Warn("program rejected", "player", player, "error", err)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}
