package server

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/netip"
	"strconv"
)

// Robot firmware posts form fields; JSON is accepted as well.
type botDescription struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

type botNumber struct {
	Bot int `json:"bot"`
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func readBotDescription(r *http.Request) (botDescription, error) {
	var d botDescription
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			return d, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	} else {
		d.Name = r.FormValue("name")
		d.IP = r.FormValue("ip")
	}
	if d.Name == "" {
		return d, fmt.Errorf("%w: missing robot name", errBadRequest)
	}
	if _, err := netip.ParseAddr(d.IP); err != nil {
		return d, fmt.Errorf("%w: bad robot address %q", errBadRequest, d.IP)
	}
	return d, nil
}

func readBotNumber(r *http.Request) (botNumber, error) {
	var b botNumber
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			return b, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return b, nil
	}
	n, err := strconv.Atoi(r.FormValue("bot"))
	if err != nil {
		return b, fmt.Errorf("%w: bot must be a number", errBadRequest)
	}
	b.Bot = n
	return b, nil
}

func (s *Server) handleBotIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("API is working."))
}

// handleBotRegister is called by a robot when it boots.
func (s *Server) handleBotRegister(w http.ResponseWriter, r *http.Request) {
	d, err := readBotDescription(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.game.RegisterRobot(d.Name, d.IP)
	w.WriteHeader(http.StatusAccepted)
}

// handleBotDone is called by a robot when it finishes a move. It never
// waits for the running round.
func (s *Server) handleBotDone(w http.ResponseWriter, r *http.Request) {
	b, err := readBotNumber(r)
	if err == nil {
		err = s.game.RobotDone(b.Bot)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
