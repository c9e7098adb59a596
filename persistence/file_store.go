package persistence

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhackz/feather-of-despair/codec"
	"github.com/dhackz/feather-of-despair/models"
)

// FileExt is the extension of board files in a FileStore directory.
const FileExt = ".board"

// FileStore keeps one board file per board in a directory
type FileStore struct {
	dir   string
	mutex sync.RWMutex
}

// NewFileStore creates a file store rooted at dir, creating dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create board directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+FileExt)
}

// SaveBoard writes the board to a temporary file and renames it over the
// previous version, so a failed write leaves the old file intact.
func (s *FileStore) SaveBoard(name string, board *models.Board) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for board %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := codec.Write(board, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write board %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync board %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close board %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		return fmt.Errorf("failed to replace board %s: %w", name, err)
	}
	return nil
}

// LoadBoard reads a board by name. A partial trailing record is dropped
// and logged.
func (s *FileStore) LoadBoard(name string) (*models.Board, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	data, err := os.ReadFile(s.path(name))
	s.mutex.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("board %s: %w", name, ErrBoardNotFound)
		}
		return nil, fmt.Errorf("failed to read board %s: %w", name, err)
	}

	board, err := decodeFile(name, data)
	return board, err
}

func decodeFile(name string, data []byte) (*models.Board, error) {
	dec := codec.NewDecoder(bytes.NewReader(data))
	board, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode board %s: %w", name, err)
	}
	if n := dec.Abandoned(); n > 0 {
		log.Printf("[FileStore] Board %s: dropped %d bytes of a partial trailing record", name, n)
	}
	return board, nil
}

// ListBoards returns every readable board in the directory, sorted by name.
// Files that fail to decode are logged and skipped.
func (s *FileStore) ListBoards() ([]BoardInfo, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	infos := make([]BoardInfo, 0, len(entries))
	for _, entry := range entries {
		fileName := entry.Name()
		// Temp files from SaveBoard end in .tmp and fail the extension check.
		if entry.IsDir() || !strings.HasSuffix(fileName, FileExt) || fileName == FileExt {
			continue
		}
		name := strings.TrimSuffix(fileName, FileExt)
		data, err := os.ReadFile(filepath.Join(s.dir, fileName))
		if err != nil {
			log.Printf("[FileStore] Skipping %s: %v", fileName, err)
			continue
		}
		board, err := decodeFile(name, data)
		if err != nil {
			log.Printf("[FileStore] Skipping %s: %v", fileName, err)
			continue
		}
		encoded, err := codec.Marshal(board)
		if err != nil {
			return nil, err
		}
		infos = append(infos, infoFor(name, board, encoded))
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DeleteBoard removes a board file
func (s *FileStore) DeleteBoard(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("board %s: %w", name, ErrBoardNotFound)
		}
		return fmt.Errorf("failed to delete board %s: %w", name, err)
	}
	return nil
}

// Close closes the store (no-op for file store)
func (s *FileStore) Close() error {
	return nil
}
