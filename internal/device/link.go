// Package device talks to robots. A Link turns each robot command into a
// transport call; the Dispatcher supervises move orders with bounded
// acknowledgement and completion watchdogs.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ruckusbots/ruckus/internal/game"
)

// Reply is the literal response a robot sends back.
type Reply string

const (
	// OK is a robot's acknowledgement.
	OK Reply = "OK"
	// Fail stands in for any transport failure.
	Fail Reply = "FAIL"
)

// ErrUnsupportedMode is returned for robots reached over a transport this
// server cannot drive.
var ErrUnsupportedMode = errors.New("communication mode not supported")

// ErrNoSettings is returned when a settings reply has no settings object.
var ErrNoSettings = errors.New("robot returned no settings")

// SetupOption selects a tuning action on a robot in setup mode.
type SetupOption int

const (
	SetupEnter SetupOption = iota
	SetupSpeedTest
	SetupNavTest
	SetupSave
)

func (o SetupOption) String() string {
	switch o {
	case SetupEnter:
		return "enter"
	case SetupSpeedTest:
		return "speed-test"
	case SetupNavTest:
		return "nav-test"
	case SetupSave:
		return "save"
	default:
		return fmt.Sprintf("SetupOption(%d)", int(o))
	}
}

// Link sends commands to robots. Every call returns the robot's reply or
// Fail; a non-nil error explains a Fail.
type Link interface {
	Move(ctx context.Context, r *game.Robot, o game.Order) (Reply, error)
	TakeDamage(ctx context.Context, r *game.Robot, delta int) (Reply, error)
	AssignPlayer(ctx context.Context, r *game.Robot, player int) (Reply, error)
	Reset(ctx context.Context, r *game.Robot) (Reply, error)
	SetupInstruction(ctx context.Context, r *game.Robot, opt SetupOption, value string) (Reply, error)
	Settings(ctx context.Context, r *game.Robot) (Reply, error)
}

// SimLink stands in for hardware. Every command succeeds at once and
// fires the robot's completion signal.
type SimLink struct{}

// NewSimLink returns a botless link.
func NewSimLink() *SimLink {
	return &SimLink{}
}

func (SimLink) done(r *game.Robot) (Reply, error) {
	r.Moving.Fire()
	return OK, nil
}

func (l SimLink) Move(_ context.Context, r *game.Robot, _ game.Order) (Reply, error) {
	return l.done(r)
}

func (l SimLink) TakeDamage(_ context.Context, r *game.Robot, _ int) (Reply, error) {
	return l.done(r)
}

func (l SimLink) AssignPlayer(_ context.Context, r *game.Robot, _ int) (Reply, error) {
	return l.done(r)
}

func (l SimLink) Reset(_ context.Context, r *game.Robot) (Reply, error) {
	return l.done(r)
}

func (l SimLink) SetupInstruction(_ context.Context, r *game.Robot, _ SetupOption, _ string) (Reply, error) {
	return l.done(r)
}

// Settings returns an empty reply; simulated robots have no settings.
func (SimLink) Settings(_ context.Context, r *game.Robot) (Reply, error) {
	r.Moving.Fire()
	return "", nil
}

// ParseSettings extracts the settings object from a raw settings reply.
// Robots may wrap the object in other text; everything from the first '{'
// through the first "}}}" is taken.
func ParseSettings(raw Reply) (map[string]any, error) {
	s := string(raw)
	start := strings.Index(s, "{")
	end := strings.Index(s, "}}}")
	if raw == Fail || start < 0 || end < start {
		return nil, ErrNoSettings
	}

	var settings map[string]any
	if err := json.Unmarshal([]byte(s[start:end+3]), &settings); err != nil {
		return nil, fmt.Errorf("decoding robot settings: %w", err)
	}
	return settings, nil
}
