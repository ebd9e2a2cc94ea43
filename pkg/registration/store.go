// Package registration persists players and the starter they picked in
// SQLite.
package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/pokeapi-client/pkg/starter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	// ErrPlayerAlreadyExists is returned when registering a known player id.
	ErrPlayerAlreadyExists = errors.New("player already exists")

	// ErrPlayerNotFound is returned for unknown player ids.
	ErrPlayerNotFound = errors.New("player does not exist")

	// ErrInvalidPlayer is returned for a blank player id or starter.
	ErrInvalidPlayer = errors.New("invalid player")
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	player_id     TEXT PRIMARY KEY,
	pokemon       TEXT NOT NULL,
	buddy         INTEGER NOT NULL DEFAULT 0,
	registered_at INTEGER NOT NULL
)`

// Player is a registered player. Pokemon starts out holding only the
// starter; Buddy indexes into it.
type Player struct {
	ID           string            `json:"player_id"`
	Pokemon      []starter.Starter `json:"pokemon"`
	Buddy        int               `json:"buddy"`
	RegisteredAt time.Time         `json:"registered_at"`
}

// Store persists players in SQLite.
type Store struct {
	sqlDB  *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{
		sqlDB:  sqlDB,
		logger: log.With().Str("component", "registration").Logger(),
		now:    time.Now,
	}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RegisterPlayer adds playerID with first as their only Pokemon and buddy.
// Player ids are unique.
func (s *Store) RegisterPlayer(ctx context.Context, playerID string, first starter.Starter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return fmt.Errorf("%w: player id is required", ErrInvalidPlayer)
	}
	if strings.TrimSpace(first.Name) == "" {
		return fmt.Errorf("%w: starter is required", ErrInvalidPlayer)
	}

	pokemon, err := json.Marshal([]starter.Starter{first})
	if err != nil {
		return fmt.Errorf("encode pokemon: %w", err)
	}

	s.logger.Info().Str("player_id", playerID).Str("starter", first.Name).Msg("Registering player")
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO players (player_id, pokemon, buddy, registered_at) VALUES (?, ?, 0, ?)`,
		playerID, string(pokemon), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Warn().Str("player_id", playerID).Msg("Player already exists")
			return ErrPlayerAlreadyExists
		}
		return fmt.Errorf("register player: %w", err)
	}
	return nil
}

// IsPlayerRegistered reports whether playerID is known.
func (s *Store) IsPlayerRegistered(ctx context.Context, playerID string) (bool, error) {
	var one int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM players WHERE player_id = ?`, strings.TrimSpace(playerID),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup player: %w", err)
	}
	return true, nil
}

// GetPlayer returns the player with playerID.
func (s *Store) GetPlayer(ctx context.Context, playerID string) (Player, error) {
	var (
		player     Player
		pokemon    string
		registered int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT player_id, pokemon, buddy, registered_at FROM players WHERE player_id = ?`,
		strings.TrimSpace(playerID),
	).Scan(&player.ID, &pokemon, &player.Buddy, &registered)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrPlayerNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("get player: %w", err)
	}
	if err := json.Unmarshal([]byte(pokemon), &player.Pokemon); err != nil {
		return Player{}, fmt.Errorf("decode pokemon of %s: %w", player.ID, err)
	}
	player.RegisteredAt = time.UnixMilli(registered).UTC()
	return player, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
