package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/dhackz/feather-of-despair/codec"
	"github.com/dhackz/feather-of-despair/models"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore keeps boards in PostgreSQL. The board itself is stored
// in its file encoding; the header fields are copied into columns so
// boards can be listed without decoding them.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL storage manager
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema initializes the database schema
func (dm *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS boards (
		id SERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		scale INTEGER NOT NULL,
		entity_count INTEGER NOT NULL,
		digest TEXT NOT NULL,
		data BYTEA NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`

	_, err := dm.db.Exec(schema)
	return err
}

// SaveBoard encodes the board and upserts it by name
func (dm *PostgresStore) SaveBoard(name string, board *models.Board) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	data, err := codec.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to encode board %s: %w", name, err)
	}

	query := `
	INSERT INTO boards (name, width, height, scale, entity_count, digest, data)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (name)
	DO UPDATE SET
		width = $2, height = $3, scale = $4, entity_count = $5,
		digest = $6, data = $7,
		updated_at = NOW()
	`

	_, err = dm.db.Exec(query,
		name, board.Size.Width, board.Size.Height, board.Scale,
		len(board.Entities), Digest(data), data)
	if err != nil {
		return fmt.Errorf("failed to save board: %w", err)
	}

	return nil
}

// LoadBoard loads a board from the database by name
func (dm *PostgresStore) LoadBoard(name string) (*models.Board, error) {
	query := `SELECT data FROM boards WHERE name = $1`

	var data []byte
	err := dm.db.QueryRow(query, name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("board %s: %w", name, ErrBoardNotFound)
		}
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	// Rows are only ever written by SaveBoard, so a short row is corruption.
	board, err := codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode board %s: %w", name, err)
	}

	return board, nil
}

// ListBoards lists the stored boards ordered by name
func (dm *PostgresStore) ListBoards() ([]BoardInfo, error) {
	query := `SELECT name, width, height, scale, entity_count, digest FROM boards ORDER BY name`

	rows, err := dm.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var infos []BoardInfo
	for rows.Next() {
		var info BoardInfo
		if err := rows.Scan(&info.Name, &info.Width, &info.Height, &info.Scale, &info.Entities, &info.Digest); err != nil {
			return nil, fmt.Errorf("failed to scan board row: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteBoard deletes a board by name
func (dm *PostgresStore) DeleteBoard(name string) error {
	res, err := dm.db.Exec(`DELETE FROM boards WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("board %s: %w", name, ErrBoardNotFound)
	}
	return nil
}

// Close closes the database connection
func (dm *PostgresStore) Close() error {
	log.Println("[PostgresStore] Closing database connection...")
	return dm.db.Close()
}
