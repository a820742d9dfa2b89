package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ruckusbots/ruckus/internal/board"
	"github.com/ruckusbots/ruckus/internal/engine"
	"github.com/ruckusbots/ruckus/internal/game"
	"github.com/ruckusbots/ruckus/internal/notify"
)

type boardSet map[string]*board.Board

func (s boardSet) LoadAll() ([]*board.Board, error) {
	out := make([]*board.Board, 0, len(s))
	for _, b := range s {
		out = append(out, b)
	}
	return out, nil
}

func (s boardSet) LoadByName(name string) (*board.Board, error) {
	if b, ok := s[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", board.ErrNotFound, name)
}

// rounds counts the rounds a game has started.
type rounds struct {
	n atomic.Int32
}

func (r *rounds) LogGameStart(string, []*game.Player) {}
func (r *rounds) LogRoundStart([]*game.Player)        { r.n.Add(1) }
func (r *rounds) LogPlayerUpdate(*game.Player)        {}
func (r *rounds) LogPlayerEntering(*game.Player)      {}
func (r *rounds) LogBotDeath(*game.Player)            {}
func (r *rounds) LogGameEnd([]*game.Player, string)   {}

type fixture struct {
	game   *engine.Game
	hub    *notify.Hub
	srv    *httptest.Server
	rounds *rounds
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	quiet := log.New(io.Discard)
	hub := notify.NewHub(16, quiet)
	counter := &rounds{}
	g := engine.New(engine.Options{
		Botless:  true,
		Notifier: notify.New(hub),
		Log:      counter,
		Logger:   quiet,
		Seed:     3,
	})

	s := New(g, boardSet{"flat": board.New("flat", 12, 12)}, hub, quiet)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{game: g, hub: hub, srv: srv, rounds: counter}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) expect(t *testing.T, method, path, body string, status int) *http.Response {
	t.Helper()
	resp := f.do(t, method, path, body)
	if resp.StatusCode != status {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s = %d (%s), expected %d", method, path, resp.StatusCode, msg, status)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (f *fixture) register(t *testing.T, name, ip string) {
	t.Helper()
	form := url.Values{"name": {name}, "ip": {ip}}.Encode()
	req, err := http.NewRequest(http.MethodPut, f.srv.URL+"/bot/", strings.NewReader(form))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestBotCallbacks(t *testing.T) {
	f := newFixture(t)

	resp := f.expect(t, http.MethodGet, "/bot/", "", http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "API is working.", string(body))

	f.register(t, "Alpha", "10.0.0.1")
	f.expect(t, http.MethodPut, "/bot/", `{"name":"Bravo","ip":"10.0.0.2"}`, http.StatusAccepted)
	f.expect(t, http.MethodPut, "/bot/", `{"name":"Charlie","ip":"not an ip"}`, http.StatusBadRequest)
	f.expect(t, http.MethodPut, "/bot/", `{"ip":"10.0.0.3"}`, http.StatusBadRequest)
	require.ElementsMatch(t, []string{"Alpha", "Bravo"}, f.game.Status().Pen)

	// Nothing is in play yet.
	f.expect(t, http.MethodPost, "/bot/Done/", `{"bot":0}`, http.StatusNotFound)
	resp, err = http.PostForm(f.srv.URL+"/bot/Done/", url.Values{"bot": {"x"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGameFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Alpha", "10.0.0.1")
	f.register(t, "Bravo", "10.0.0.2")

	boards := decode[[]boardSummary](t, f.expect(t, http.MethodGet, "/admin/boards", "", http.StatusOK))
	require.Equal(t, []boardSummary{{Name: "flat", Width: 12, Height: 12}}, boards)

	f.expect(t, http.MethodPost, "/player/", "", http.StatusConflict)
	f.expect(t, http.MethodPost, "/admin/game", `{"board":"nowhere"}`, http.StatusNotFound)
	st := decode[engine.Status](t, f.expect(t, http.MethodPost, "/admin/game",
		`{"board":"flat","players":2,"flags":[[6,3],[6,9]]}`, http.StatusOK))
	require.True(t, st.Ready)
	require.Equal(t, "flat", st.Board)

	p0 := decode[playerNumber](t, f.expect(t, http.MethodPost, "/player/", "", http.StatusCreated))
	p1 := decode[playerNumber](t, f.expect(t, http.MethodPost, "/player/", "", http.StatusCreated))
	require.Equal(t, 0, p0.Player)
	require.Equal(t, 1, p1.Player)
	f.expect(t, http.MethodPost, "/player/", "", http.StatusConflict)

	f.expect(t, http.MethodPost, "/player/0/setup", `{"robot":"Alpha","x":2,"y":2,"facing":"+X"}`, http.StatusNoContent)
	f.expect(t, http.MethodPost, "/player/1/setup", `{"robot":"Alpha","x":2,"y":5,"facing":"+X"}`, http.StatusConflict)
	f.expect(t, http.MethodPost, "/player/1/setup", `{"robot":"Bravo","x":2,"y":2,"facing":"+X"}`, http.StatusConflict)
	f.expect(t, http.MethodPost, "/player/1/setup", `{"robot":"Bravo","x":20,"y":2,"facing":"+X"}`, http.StatusBadRequest)
	f.expect(t, http.MethodPost, "/player/1/setup", `{"robot":"Bravo","x":2,"y":5,"facing":"up"}`, http.StatusBadRequest)
	f.expect(t, http.MethodPost, "/player/1/setup", `{"robot":"Bravo","x":2,"y":5,"facing":"+X"}`, http.StatusNoContent)
	f.expect(t, http.MethodPost, "/player/9/setup", `{"robot":"Bravo","x":2,"y":5,"facing":"+X"}`, http.StatusNotFound)

	f.expect(t, http.MethodPost, "/player/0/program", `{"cards":[0,1,2,3,4]}`, http.StatusConflict)
	f.expect(t, http.MethodPost, "/admin/game/start", "", http.StatusOK)
	f.expect(t, http.MethodPost, "/admin/game/start", "", http.StatusConflict)

	hands := make([][]int, 2)
	for p := range hands {
		hand := decode[handResponse](t, f.expect(t, http.MethodGet, fmt.Sprintf("/player/%d/hand", p), "", http.StatusOK))
		require.Len(t, hand.Cards, game.HandSize)
		for _, c := range hand.Cards[:game.Registers] {
			hands[p] = append(hands[p], c.Number)
		}
	}

	st = decode[engine.Status](t, f.expect(t, http.MethodPut, "/admin/players/1",
		`{"lives":2,"damage":4,"x":9,"y":9,"facing":"-Y","flags":1}`, http.StatusOK))
	require.Equal(t, 2, st.Players[1].Lives)
	require.Equal(t, 4, st.Players[1].Damage)
	require.Equal(t, 9, st.Players[1].X)
	require.Equal(t, 1, st.Players[1].Flags)
	require.Equal(t, 2, st.Players[1].TotalFlags)
	f.expect(t, http.MethodPut, "/admin/players/1", `{"lives":2,"x":2,"y":2,"facing":"-Y"}`, http.StatusConflict)
	f.expect(t, http.MethodPut, "/admin/players/1", `{"lives":2,"x":40,"y":2,"facing":"-Y"}`, http.StatusBadRequest)

	f.expect(t, http.MethodPost, "/player/0/program", `{"cards":[1,2]}`, http.StatusBadRequest)
	f.expect(t, http.MethodPost, "/player/0/program", `{"cards":[1,2,3,4,5],"extra":1}`, http.StatusBadRequest)
	f.expect(t, http.MethodGet, "/player/zero/hand", "", http.StatusBadRequest)

	for p, cards := range hands {
		body, err := json.Marshal(programRequest{Cards: cards})
		require.NoError(t, err)
		f.expect(t, http.MethodPost, fmt.Sprintf("/player/%d/program", p), string(body), http.StatusAccepted)
	}

	// The round runs after the last program is accepted.
	require.Eventually(t, func() bool {
		if f.rounds.n.Load() != 1 {
			return false
		}
		st := decode[engine.Status](t, f.do(t, http.MethodGet, "/status", ""))
		return !st.RoundRunning && !st.Players[0].Submitted && !st.Players[1].Submitted
	}, 5*time.Second, 10*time.Millisecond)

	f.expect(t, http.MethodPost, "/admin/game/timer", `{"enabled":true}`, http.StatusNoContent)
	f.expect(t, http.MethodPost, "/admin/players/1/redeal", "", http.StatusNoContent)
	f.expect(t, http.MethodPost, "/admin/players/7/redeal", "", http.StatusNotFound)

	st = decode[engine.Status](t, f.expect(t, http.MethodPost, "/admin/game/reset", "", http.StatusOK))
	require.False(t, st.Started)
	st = decode[engine.Status](t, f.expect(t, http.MethodPost, "/admin/game/reset?all=true", "", http.StatusOK))
	require.ElementsMatch(t, []string{"Alpha", "Bravo"}, st.Pen)
}

func TestTuningNeedsRobots(t *testing.T) {
	f := newFixture(t)
	f.expect(t, http.MethodPost, "/admin/tuning", "", http.StatusConflict)
	f.expect(t, http.MethodPost, "/admin/tuning/0/setup", "", http.StatusConflict)
	f.expect(t, http.MethodPost, "/admin/tuning/0/config", `{"option":2,"value":"1"}`, http.StatusConflict)
	f.expect(t, http.MethodGet, "/admin/tuning/0/settings", "", http.StatusConflict)
	f.expect(t, http.MethodDelete, "/admin/tuning", "", http.StatusNoContent)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{engine.ErrUnknownPlayer, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", board.ErrNotFound), http.StatusNotFound},
		{engine.ErrInvalidProgram, http.StatusBadRequest},
		{errBadRequest, http.StatusBadRequest},
		{engine.ErrGameFull, http.StatusConflict},
		{game.ErrDeckExhausted, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := statusFor(tc.err); got != tc.expected {
			t.Errorf("statusFor(%v) = %d, expected %d", tc.err, got, tc.expected)
		}
	}
}

func TestObserverReceivesEvents(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Alpha", "10.0.0.1")

	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	f.expect(t, http.MethodPost, "/admin/game/reset?all=true", "", http.StatusOK)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "reset", msg.Type)
}
