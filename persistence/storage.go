package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhackz/feather-of-despair/models"
)

// ErrBoardNotFound is returned when a named board does not exist.
var ErrBoardNotFound = errors.New("board not found")

// BoardInfo summarizes a stored board without its entities.
type BoardInfo struct {
	Name     string `json:"name"`
	Width    int32  `json:"width"`
	Height   int32  `json:"height"`
	Scale    int32  `json:"scale"`
	Entities int    `json:"entities"`
	Digest   string `json:"digest,omitempty"`
}

// Storage defines the interface for board persistence
type Storage interface {
	SaveBoard(name string, board *models.Board) error
	LoadBoard(name string) (*models.Board, error)
	ListBoards() ([]BoardInfo, error)
	DeleteBoard(name string) error
	Close() error
}

// ValidateName rejects names that cannot be used as a file name.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("board name is empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("board name is %d bytes, max 128", len(name))
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\"`+"\x00") {
		return fmt.Errorf("invalid board name %q", name)
	}
	return nil
}
