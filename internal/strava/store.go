package strava

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB persists OAuth tokens and the gear-name cache between invocations.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
			id            INTEGER PRIMARY KEY CHECK (id = 1),
			refresh_token TEXT NOT NULL,
			access_token  TEXT NOT NULL,
			expires_at    INTEGER NOT NULL,
			athlete_id    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS gear_names (
			gear_id TEXT PRIMARY KEY,
			name    TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating state tables: %w", err)
		}
	}

	return &StateDB{db: db}, nil
}

// LoadTokens returns the saved token set, or nil when auth has never run.
func (s *StateDB) LoadTokens() (*Tokens, error) {
	var t Tokens
	err := s.db.QueryRow(
		`SELECT refresh_token, access_token, expires_at, athlete_id FROM tokens WHERE id = 1`,
	).Scan(&t.RefreshToken, &t.AccessToken, &t.ExpiresAt, &t.AthleteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveTokens stores the token set, replacing any previous one.
func (s *StateDB) SaveTokens(t Tokens) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO tokens (id, refresh_token, access_token, expires_at, athlete_id)
		 VALUES (1, ?, ?, ?, ?)`,
		t.RefreshToken, t.AccessToken, t.ExpiresAt, t.AthleteID,
	)
	return err
}

// GearName returns the cached display name for a gear id.
func (s *StateDB) GearName(gearID string) (string, bool, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM gear_names WHERE gear_id = ?`, gearID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// SaveGearName caches a gear display name so repeated exports skip the API call.
func (s *StateDB) SaveGearName(gearID, name string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO gear_names (gear_id, name) VALUES (?, ?)`,
		gearID, name,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
