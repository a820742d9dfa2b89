package board

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// ErrNotFound is returned when no board has the requested name.
var ErrNotFound = errors.New("board not found")

// Loader reads board files from a directory tree.
type Loader struct {
	Root string
}

// NewLoader creates a new board loader.
func NewLoader(root string) *Loader {
	return &Loader{Root: root}
}

// LoadAll recursively scans and loads all board files, sorted by name.
// Files that fail to parse are skipped.
func (l *Loader) LoadAll() ([]*Board, error) {
	var boards []*Board

	err := filepath.WalkDir(l.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !slices.Contains(FormatExtensions(), strings.ToLower(filepath.Ext(path))) {
			return nil
		}

		b, err := l.LoadFile(path)
		if err != nil {
			return nil
		}
		boards = append(boards, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", l.Root, err)
	}

	sort.Slice(boards, func(i, j int) bool {
		return boards[i].Name < boards[j].Name
	})
	return boards, nil
}

// LoadFile loads a single board file. A board without a name is named
// after its file.
func (l *Loader) LoadFile(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	b, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing file %s: %w", path, err)
	}
	if b.Name == "" {
		b.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	b.FilePath = path
	return b, nil
}

// LoadByName loads the board with the given name.
func (l *Loader) LoadByName(name string) (*Board, error) {
	boards, err := l.LoadAll()
	if err != nil {
		return nil, err
	}
	for _, b := range boards {
		if strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}
