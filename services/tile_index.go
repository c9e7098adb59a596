package services

import (
	"fmt"

	"github.com/dhackz/feather-of-despair/models"
)

// indexChunk holds the entities of one square section of a board
type indexChunk struct {
	X        int32
	Y        int32
	Entities map[models.Position]models.Entity
}

// TileIndex is a chunked spatial index over a board's entities. It holds
// at most one entity per position: the first one in board order, which is
// the one Board.EntityAt returns.
type TileIndex struct {
	chunkSize int32
	chunks    map[string]*indexChunk
}

// NewTileIndex indexes the entities of board
func NewTileIndex(chunkSize int, board *models.Board) *TileIndex {
	ti := &TileIndex{
		chunkSize: int32(chunkSize),
		chunks:    make(map[string]*indexChunk),
	}
	for _, e := range board.Entities {
		if _, exists := ti.At(e.Position); !exists {
			ti.Set(e)
		}
	}
	return ti
}

// getChunkCoordinates calculates the chunk coordinates for a given position
func (ti *TileIndex) getChunkCoordinates(x, y int32) (int32, int32) {
	cx := x / ti.chunkSize
	if x < 0 && x%ti.chunkSize != 0 {
		cx--
	}
	cy := y / ti.chunkSize
	if y < 0 && y%ti.chunkSize != 0 {
		cy--
	}
	return cx, cy
}

// getChunkKey generates a unique key for a chunk
func (ti *TileIndex) getChunkKey(chunkX, chunkY int32) string {
	return fmt.Sprintf("%d,%d", chunkX, chunkY)
}

func (ti *TileIndex) chunkFor(pos models.Position, create bool) *indexChunk {
	cx, cy := ti.getChunkCoordinates(pos.X, pos.Y)
	key := ti.getChunkKey(cx, cy)
	chunk, exists := ti.chunks[key]
	if !exists && create {
		chunk = &indexChunk{X: cx, Y: cy, Entities: make(map[models.Position]models.Entity)}
		ti.chunks[key] = chunk
	}
	return chunk
}

// Set records e at its position, replacing what was there
func (ti *TileIndex) Set(e models.Entity) {
	ti.chunkFor(e.Position, true).Entities[e.Position] = e
}

// Remove forgets the entity at pos
func (ti *TileIndex) Remove(pos models.Position) {
	chunk := ti.chunkFor(pos, false)
	if chunk == nil {
		return
	}
	delete(chunk.Entities, pos)
	if len(chunk.Entities) == 0 {
		delete(ti.chunks, ti.getChunkKey(chunk.X, chunk.Y))
	}
}

// At returns the entity at pos
func (ti *TileIndex) At(pos models.Position) (models.Entity, bool) {
	chunk := ti.chunkFor(pos, false)
	if chunk == nil {
		return models.Entity{}, false
	}
	e, ok := chunk.Entities[pos]
	return e, ok
}

// Len returns the number of indexed positions
func (ti *TileIndex) Len() int {
	n := 0
	for _, chunk := range ti.chunks {
		n += len(chunk.Entities)
	}
	return n
}

// ChunksIn returns the populated chunks overlapping the rectangle from lo
// to hi, both inclusive
func (ti *TileIndex) ChunksIn(lo, hi models.Position) []*indexChunk {
	minX, minY := ti.getChunkCoordinates(lo.X, lo.Y)
	maxX, maxY := ti.getChunkCoordinates(hi.X, hi.Y)

	var chunks []*indexChunk
	for cy := int64(minY); cy <= int64(maxY); cy++ {
		for cx := int64(minX); cx <= int64(maxX); cx++ {
			if chunk, exists := ti.chunks[ti.getChunkKey(int32(cx), int32(cy))]; exists {
				chunks = append(chunks, chunk)
			}
		}
	}
	return chunks
}
