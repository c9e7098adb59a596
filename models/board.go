package models

// Position is a cell coordinate in board space.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Rect describes the size of a board in cells.
type Rect struct {
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
}

// Entity is a tile placed at a position on the board.
type Entity struct {
	Position Position `json:"position"`
	Tile     Tile     `json:"tile"`
}

// Board is the persisted map: its size, display scale and placed entities.
// Entity order is file order.
type Board struct {
	Size     Rect     `json:"size"`
	Scale    int32    `json:"scale"`
	Entities []Entity `json:"entities"`
}

// NewBoard creates an empty board
func NewBoard(width, height, scale int32) *Board {
	return &Board{
		Size:     Rect{Width: width, Height: height},
		Scale:    scale,
		Entities: make([]Entity, 0),
	}
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := &Board{Size: b.Size, Scale: b.Scale, Entities: make([]Entity, len(b.Entities))}
	copy(c.Entities, b.Entities)
	return c
}

// Equal reports whether two boards hold the same size, scale and entity
// sequence. A nil and an empty entity list compare equal.
func (b *Board) Equal(other *Board) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.Size != other.Size || b.Scale != other.Scale || len(b.Entities) != len(other.Entities) {
		return false
	}
	for i := range b.Entities {
		if b.Entities[i] != other.Entities[i] {
			return false
		}
	}
	return true
}

// InBounds reports whether pos lies inside the board.
func (b *Board) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < b.Size.Width && pos.Y < b.Size.Height
}

// EntityAt returns the first entity at pos.
func (b *Board) EntityAt(pos Position) (Entity, bool) {
	for _, e := range b.Entities {
		if e.Position == pos {
			return e, true
		}
	}
	return Entity{}, false
}

// Place puts an entity on the board, replacing the one already at its
// position. New positions are appended so file order follows placement
// order.
func (b *Board) Place(e Entity) {
	for i := range b.Entities {
		if b.Entities[i].Position == e.Position {
			b.Entities[i] = e
			return
		}
	}
	b.Entities = append(b.Entities, e)
}

// Remove deletes every entity at pos and reports whether any was found.
func (b *Board) Remove(pos Position) bool {
	kept := b.Entities[:0]
	removed := false
	for _, e := range b.Entities {
		if e.Position == pos {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	b.Entities = kept
	return removed
}
