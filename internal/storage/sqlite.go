// Package storage provides SQLite-based persistence for the game log.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrGameNotFound is returned when a game ID has no record.
var ErrGameNotFound = errors.New("storage: game not found")

// Store manages the SQLite database connection for the game log.
type Store struct {
	db *sql.DB
}

// GameRecord is one logged game.
type GameRecord struct {
	ID        string
	Board     string
	Players   int
	Winner    string // robot name, empty if none
	StartedAt time.Time
	EndedAt   time.Time // zero while running
}

// Finished reports whether the game end was logged.
func (g GameRecord) Finished() bool {
	return !g.EndedAt.IsZero()
}

// EventRecord is one logged event with the player snapshots it carries.
type EventRecord struct {
	ID        int64
	GameID    string
	Seq       int
	Kind      EventKind
	Players   []PlayerRecord
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer keeps sequence numbers consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			board TEXT NOT NULL,
			players INTEGER NOT NULL DEFAULT 0,
			winner TEXT,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_games_started ON games(started_at DESC);

		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL REFERENCES games(id),
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_events_game_seq ON events(game_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateGame records a new game and its starting roster as the first
// event. Returns the generated game ID.
func (s *Store) CreateGame(board string, players []PlayerRecord) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.Exec(
		"INSERT INTO games (id, board, players) VALUES (?, ?, ?)",
		id, board, len(players),
	); err != nil {
		return "", fmt.Errorf("storage: cannot create game: %w", err)
	}
	if err := s.AppendEvent(id, EventGameStart, players); err != nil {
		return "", err
	}
	return id, nil
}

// AppendEvent adds an event to a game's log.
func (s *Store) AppendEvent(gameID string, kind EventKind, players []PlayerRecord) error {
	payload, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("storage: cannot encode players: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO events (game_id, seq, kind, payload)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE game_id = ?), ?, ?)`,
		gameID, gameID, string(kind), string(payload),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot append %s event: %w", kind, err)
	}
	return nil
}

// EndGame logs the game end event and closes the game record.
func (s *Store) EndGame(gameID, winner string, players []PlayerRecord) error {
	if err := s.AppendEvent(gameID, EventGameEnd, players); err != nil {
		return err
	}
	var w sql.NullString
	if winner != "" {
		w = sql.NullString{String: winner, Valid: true}
	}
	_, err := s.db.Exec(
		"UPDATE games SET ended_at = CURRENT_TIMESTAMP, winner = ? WHERE id = ?",
		w, gameID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot end game: %w", err)
	}
	return nil
}

// Game retrieves one game by ID.
func (s *Store) Game(gameID string) (*GameRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, board, players, winner, started_at, ended_at
		 FROM games WHERE id = ?`,
		gameID,
	)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query game: %w", err)
	}
	return g, nil
}

// Games retrieves the most recent games, newest first.
func (s *Store) Games(limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, board, players, winner, started_at, ended_at
		 FROM games
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query games: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		games = append(games, *g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return games, nil
}

// Events retrieves a game's events in logging order.
func (s *Store) Events(gameID string) ([]EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, game_id, seq, kind, payload, created_at
		 FROM events
		 WHERE game_id = ?
		 ORDER BY seq`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var kind, payload string
		var createdAt any
		if err := rows.Scan(&e.ID, &e.GameID, &e.Seq, &kind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Kind = EventKind(kind)
		if err := json.Unmarshal([]byte(payload), &e.Players); err != nil {
			return nil, fmt.Errorf("storage: event %d has bad payload: %w", e.ID, err)
		}
		e.CreatedAt = parseTime(createdAt)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*GameRecord, error) {
	var g GameRecord
	var winner sql.NullString
	var startedAt, endedAt any
	if err := row.Scan(&g.ID, &g.Board, &g.Players, &winner, &startedAt, &endedAt); err != nil {
		return nil, err
	}
	if winner.Valid {
		g.Winner = winner.String
	}
	g.StartedAt = parseTime(startedAt)
	g.EndedAt = parseTime(endedAt)
	return &g, nil
}

// parseTime handles both time.Time and string datetimes; NULL yields zero.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
