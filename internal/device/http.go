package device

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ruckusbots/ruckus/internal/game"
)

// HTTPLink reaches robots over HTTP at their registered address. One
// client and its connection pool is shared by every robot.
type HTTPLink struct {
	client *http.Client
	logger *log.Logger
}

// NewHTTPLink creates a link whose requests give up after timeout.
func NewHTTPLink(timeout time.Duration, logger *log.Logger) *HTTPLink {
	if logger == nil {
		logger = log.Default()
	}
	return &HTTPLink{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (l *HTTPLink) send(ctx context.Context, r *game.Robot, method, path string, form url.Values) (Reply, error) {
	if r.Mode != game.ModeIP {
		return Fail, fmt.Errorf("robot %s over %s: %w", r.Name, r.Mode, ErrUnsupportedMode)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	target := "http://" + r.Addr + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Fail, fmt.Errorf("building %s request: %w", path, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Debug("robot unreachable", "robot", r.Name, "command", path, "error", err)
		return Fail, fmt.Errorf("sending %s to %s: %w", path, r.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fail, fmt.Errorf("reading %s reply from %s: %w", path, r.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Fail, fmt.Errorf("robot %s answered %s with status %d", r.Name, path, resp.StatusCode)
	}
	return Reply(strings.TrimSpace(string(data))), nil
}

// Move sends a movement order.
func (l *HTTPLink) Move(ctx context.Context, r *game.Robot, o game.Order) (Reply, error) {
	return l.send(ctx, r, http.MethodPost, "move", url.Values{
		"move":      {strconv.Itoa(int(o.Move))},
		"magnitude": {strconv.Itoa(o.Magnitude)},
	})
}

// TakeDamage tells a robot how much damage it just took.
func (l *HTTPLink) TakeDamage(ctx context.Context, r *game.Robot, delta int) (Reply, error) {
	return l.send(ctx, r, http.MethodPut, "takeDamage", url.Values{
		"magnitude": {strconv.Itoa(delta)},
	})
}

// AssignPlayer tells a robot which player drives it. Robots display the
// player number one based.
func (l *HTTPLink) AssignPlayer(ctx context.Context, r *game.Robot, player int) (Reply, error) {
	return l.send(ctx, r, http.MethodPut, "assignPlayer", url.Values{
		"player":    {strconv.Itoa(player + 1)},
		"botNumber": {strconv.Itoa(r.Number)},
	})
}

// Reset returns a robot to its idle state.
func (l *HTTPLink) Reset(ctx context.Context, r *game.Robot) (Reply, error) {
	return l.send(ctx, r, http.MethodPut, "reset", nil)
}

// SetupInstruction sends a tuning command to a robot in setup mode.
func (l *HTTPLink) SetupInstruction(ctx context.Context, r *game.Robot, opt SetupOption, value string) (Reply, error) {
	return l.send(ctx, r, http.MethodPost, "setupInstruction", url.Values{
		"option":     {strconv.Itoa(int(opt))},
		"parameters": {value},
	})
}

// Settings fetches a robot's tuning parameters.
func (l *HTTPLink) Settings(ctx context.Context, r *game.Robot) (Reply, error) {
	return l.send(ctx, r, http.MethodGet, "getSettings", nil)
}
