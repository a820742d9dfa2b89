package engine

// PlayerStatus is one seat as shown to spectators.
type PlayerStatus struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	Lives      int    `json:"lives"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Direction  int    `json:"direction"`
	Damage     int    `json:"damage"`
	Flags      int    `json:"flags"`
	TotalFlags int    `json:"totalFlags"`
	Reenter    bool   `json:"reenter"`
	LastX      int    `json:"last_x"`
	LastY      int    `json:"last_y"`
	Shutdown   bool   `json:"shutdown"`
	Submitted  bool   `json:"submitted"`
}

// Status is a snapshot of the table.
type Status struct {
	Board        string         `json:"board,omitempty"`
	Ready        bool           `json:"ready"`
	Started      bool           `json:"started"`
	RoundRunning bool           `json:"roundRunning"`
	Tuning       bool           `json:"tuning"`
	Winner       string         `json:"winner,omitempty"`
	Entering     bool           `json:"entering"`
	Players      []PlayerStatus `json:"players"`
	Pen          []string       `json:"botNames"`
}

// Status returns the latest snapshot. It never waits for a running round;
// the snapshot is refreshed after every order the round dispatches.
func (g *Game) Status() Status {
	return *g.status.Load()
}

// refreshStatus publishes a new snapshot. Called with the game lock held.
func (g *Game) refreshStatus() {
	s := &Status{
		Ready:        g.ready,
		Started:      g.state.Started,
		RoundRunning: g.state.RoundRunning,
		Tuning:       g.state.Tuning,
		Winner:       g.winnerName(),
		Entering:     g.state.PlayersNeedEntering,
		Players:      make([]PlayerStatus, 0, len(g.state.Players)),
		Pen:          make([]string, 0, len(g.state.Pen)),
	}
	totalFlags := 0
	if g.board != nil {
		s.Board = g.board.Name
		totalFlags = len(g.board.Flags)
	}

	for _, p := range g.state.Players {
		ps := PlayerStatus{
			Number:     p.Number,
			Lives:      p.Lives,
			TotalFlags: totalFlags,
			Reenter:    p.Dead && p.Lives > 0,
			Shutdown:   p.Shutdown,
			Submitted:  p.Submitted(),
			X:          -1,
			Y:          -1,
			LastX:      -1,
			LastY:      -1,
		}
		if r := p.Robot; r != nil {
			ps.Name = r.Name
			ps.X, ps.Y = r.Pos.X, r.Pos.Y
			ps.Direction = int(r.Facing)
			ps.Damage = r.Damage
			ps.Flags = r.Flags
			ps.LastX, ps.LastY = r.LastLocation.X, r.LastLocation.Y
		}
		s.Players = append(s.Players, ps)
	}
	for _, r := range g.state.Pen {
		s.Pen = append(s.Pen, r.Name)
	}
	g.status.Store(s)
}
