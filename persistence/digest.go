package persistence

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/dhackz/feather-of-despair/codec"
	"github.com/dhackz/feather-of-despair/models"
)

// Digest returns the hex BLAKE3-256 hash of an encoded board. Two boards
// with the same digest encode to the same bytes.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BoardDigest encodes board and returns its digest.
func BoardDigest(board *models.Board) (string, error) {
	data, err := codec.Marshal(board)
	if err != nil {
		return "", err
	}
	return Digest(data), nil
}

func infoFor(name string, board *models.Board, data []byte) BoardInfo {
	return BoardInfo{
		Name:     name,
		Width:    board.Size.Width,
		Height:   board.Size.Height,
		Scale:    board.Scale,
		Entities: len(board.Entities),
		Digest:   Digest(data),
	}
}
