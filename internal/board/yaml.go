package board

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ruckusbots/ruckus/internal/core"
)

// yamlBoard is the on-disk layout of a board file. Cells are written as
// [x, y] flow sequences.
type yamlBoard struct {
	Name       string          `yaml:"name"`
	Size       yamlSize        `yaml:"size"`
	Flags      []yamlPoint     `yaml:"flags"`
	Walls      [][2]yamlPoint  `yaml:"walls,omitempty"`
	Pits       []yamlPoint     `yaml:"pits,omitempty"`
	Conveyors  []yamlConveyor  `yaml:"conveyors,omitempty"`
	Turntables []yamlTurntable `yaml:"turntables,omitempty"`
	Lasers     []yamlLaser     `yaml:"lasers,omitempty"`
	Wrenches   []yamlPoint     `yaml:"wrenches,omitempty"`
}

type yamlSize struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
}

type yamlPoint [2]int

func (p yamlPoint) coord() core.Coord {
	return core.C(p[0], p[1])
}

type yamlConveyor struct {
	At      yamlPoint        `yaml:"at"`
	Dir     core.Orientation `yaml:"dir"`
	Express bool             `yaml:"express,omitempty"`
}

type yamlTurntable struct {
	At        yamlPoint `yaml:"at"`
	Clockwise bool      `yaml:"clockwise"`
}

type yamlLaser struct {
	At       yamlPoint        `yaml:"at"`
	Dir      core.Orientation `yaml:"dir"`
	Strength int              `yaml:"strength,omitempty"`
}

// ParseYAML parses a board file.
func ParseYAML(data []byte) (*Board, error) {
	var yb yamlBoard
	if err := yaml.Unmarshal(data, &yb); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if yb.Size.W <= 0 || yb.Size.H <= 0 {
		return nil, fmt.Errorf("board %q: invalid size %dx%d", yb.Name, yb.Size.W, yb.Size.H)
	}

	b := &Board{
		Name:   yb.Name,
		Width:  yb.Size.W,
		Height: yb.Size.H,
	}

	for _, f := range yb.Flags {
		b.Flags = append(b.Flags, f.coord())
	}
	for _, w := range yb.Walls {
		a, c := w[0].coord(), w[1].coord()
		if core.Abs(a.X-c.X)+core.Abs(a.Y-c.Y) != 1 {
			return nil, fmt.Errorf("board %q: wall %v-%v does not join adjacent cells", yb.Name, a, c)
		}
		b.Walls = append(b.Walls, Wall{A: a, B: c})
	}
	for _, p := range yb.Pits {
		b.Pits = append(b.Pits, p.coord())
	}
	for _, c := range yb.Conveyors {
		b.Conveyors = append(b.Conveyors, Conveyor{At: c.At.coord(), Dir: c.Dir, Express: c.Express})
	}
	for _, t := range yb.Turntables {
		b.Turntables = append(b.Turntables, Turntable{At: t.At.coord(), Clockwise: t.Clockwise})
	}
	for _, l := range yb.Lasers {
		strength := l.Strength
		if strength <= 0 {
			strength = 1
		}
		b.Lasers = append(b.Lasers, Laser{Start: l.At.coord(), Dir: l.Dir, Strength: strength})
	}
	for _, w := range yb.Wrenches {
		b.Wrenches = append(b.Wrenches, w.coord())
	}

	b.index()
	return b, nil
}

// FormatExtensions returns supported file extensions.
func FormatExtensions() []string {
	return []string{".yaml", ".yml"}
}
