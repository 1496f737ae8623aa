// Package store persists game and template records in sqlite. Records
// are stored as JSON documents keyed by id, with games additionally
// indexed by access code. Last writer wins; the in-memory game table
// is the source of truth at runtime.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"quizboard/internal/game"
)

type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS games (
            id TEXT PRIMARY KEY,
            access_code TEXT UNIQUE,
            data TEXT NOT NULL
        );
        CREATE TABLE IF NOT EXISTS templates (
            id TEXT PRIMARY KEY,
            data TEXT NOT NULL
        );
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) PutGame(g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to encode game: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO games (id, access_code, data) VALUES (?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET access_code = excluded.access_code, data = excluded.data`,
		g.ID, g.AccessCode, string(data),
	)
	return err
}

func (d *DB) GetGame(id string) (*game.Game, error) {
	var data string
	err := d.db.QueryRow("SELECT data FROM games WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeGame(data)
}

func (d *DB) GetGameByCode(code string) (*game.Game, error) {
	var data string
	err := d.db.QueryRow("SELECT data FROM games WHERE UPPER(access_code) = UPPER(?)", code).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeGame(data)
}

func (d *DB) DeleteGame(id string) error {
	_, err := d.db.Exec("DELETE FROM games WHERE id = ?", id)
	return err
}

func (d *DB) ListGames() ([]*game.Game, error) {
	rows, err := d.db.Query("SELECT data FROM games")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*game.Game
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		g, err := decodeGame(data)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (d *DB) PutTemplate(t *game.Template) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO templates (id, data) VALUES (?, ?)
         ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		t.ID, string(data),
	)
	return err
}

func (d *DB) GetTemplate(id string) (*game.Template, error) {
	var data string
	err := d.db.QueryRow("SELECT data FROM templates WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, game.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	var t game.Template
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return &t, nil
}

func (d *DB) DeleteTemplate(id string) error {
	_, err := d.db.Exec("DELETE FROM templates WHERE id = ?", id)
	return err
}

func (d *DB) ListTemplates() ([]*game.Template, error) {
	rows, err := d.db.Query("SELECT data FROM templates")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*game.Template
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var t game.Template
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("failed to decode template: %w", err)
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

func decodeGame(data string) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("failed to decode game: %w", err)
	}
	return &g, nil
}
