package services

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/dhackz/feather-of-despair/codec"
	"github.com/dhackz/feather-of-despair/config"
	"github.com/dhackz/feather-of-despair/models"
	"github.com/dhackz/feather-of-despair/persistence"
)

// View cell values for cells without a tile.
const (
	ViewEmpty       = -1
	ViewOutOfBounds = -2
)

var (
	ErrBoardNotOpen = errors.New("board is not open")
	ErrOutOfBounds  = errors.New("position is outside the board")
	ErrInvalidSize  = errors.New("board size must be positive")
	ErrViewTooLarge = errors.New("view radius too large")
)

// BoardStatus describes an open board.
type BoardStatus struct {
	persistence.BoardInfo
	// Dirty is set when the board differs from the last saved or loaded
	// version.
	Dirty bool `json:"dirty"`
}

// View is a square window of tile types around a point.
type View struct {
	CenterX int32   `json:"center_x"`
	CenterY int32   `json:"center_y"`
	Radius  int32   `json:"radius"`
	Tiles   [][]int `json:"tiles"`
}

type openBoard struct {
	board       *models.Board
	index       *TileIndex
	savedDigest string
}

// BoardService keeps the boards that editors have open
type BoardService struct {
	db         persistence.Storage
	defaults   config.BoardDefaults
	chunkSize  int
	viewRadius int32
	boards     map[string]*openBoard
	mutex      sync.RWMutex
}

// NewBoardService creates a new board service
func NewBoardService(db persistence.Storage, cfg *config.Config) *BoardService {
	return &BoardService{
		db:         db,
		defaults:   cfg.NewBoard,
		chunkSize:  cfg.ChunkSize,
		viewRadius: int32(cfg.ViewRadius),
		boards:     make(map[string]*openBoard),
	}
}

// Open loads a board into memory, or creates an empty one with the
// configured defaults when the store has no board of that name. Opening
// an open board returns its current state.
func (bs *BoardService) Open(name string) (BoardStatus, error) {
	if err := persistence.ValidateName(name); err != nil {
		return BoardStatus{}, err
	}

	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if ob, exists := bs.boards[name]; exists {
		return ob.status(name)
	}

	board, err := bs.db.LoadBoard(name)
	savedDigest := ""
	switch {
	case err == nil:
		savedDigest, err = persistence.BoardDigest(board)
		if err != nil {
			return BoardStatus{}, err
		}
		log.Printf("[BoardService] Opened board %s: %dx%d, %d entities", name, board.Size.Width, board.Size.Height, len(board.Entities))
	case errors.Is(err, persistence.ErrBoardNotFound):
		board = models.NewBoard(bs.defaults.Width, bs.defaults.Height, bs.defaults.Scale)
		log.Printf("[BoardService] Created board %s: %dx%d", name, board.Size.Width, board.Size.Height)
	default:
		return BoardStatus{}, fmt.Errorf("failed to open board %s: %w", name, err)
	}

	ob := &openBoard{
		board:       board,
		index:       NewTileIndex(bs.chunkSize, board),
		savedDigest: savedDigest,
	}
	bs.boards[name] = ob
	return ob.status(name)
}

func (ob *openBoard) status(name string) (BoardStatus, error) {
	data, err := codec.Marshal(ob.board)
	if err != nil {
		return BoardStatus{}, err
	}
	b := ob.board
	st := BoardStatus{
		BoardInfo: persistence.BoardInfo{
			Name:     name,
			Width:    b.Size.Width,
			Height:   b.Size.Height,
			Scale:    b.Scale,
			Entities: len(b.Entities),
			Digest:   persistence.Digest(data),
		},
	}
	st.Dirty = st.Digest != ob.savedDigest
	return st, nil
}

func (bs *BoardService) get(name string) (*openBoard, error) {
	ob, exists := bs.boards[name]
	if !exists {
		return nil, fmt.Errorf("board %s: %w", name, ErrBoardNotOpen)
	}
	return ob, nil
}

// Info returns the status of an open board
func (bs *BoardService) Info(name string) (BoardStatus, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	ob, err := bs.get(name)
	if err != nil {
		return BoardStatus{}, err
	}
	return ob.status(name)
}

// Snapshot returns the file encoding of an open board
func (bs *BoardService) Snapshot(name string) ([]byte, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	ob, err := bs.get(name)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(ob.board)
}

// Replace swaps the contents of an open board for an uploaded board file.
// Uploads are decoded strictly: a partial trailing record is rejected.
func (bs *BoardService) Replace(name string, data []byte) (BoardStatus, error) {
	board, err := codec.Unmarshal(data)
	if err != nil {
		return BoardStatus{}, err
	}

	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	ob, err := bs.get(name)
	if err != nil {
		return BoardStatus{}, err
	}
	ob.board = board
	ob.index = NewTileIndex(bs.chunkSize, board)
	log.Printf("[BoardService] Replaced board %s from upload: %d entities", name, len(board.Entities))
	return ob.status(name)
}

// PlaceWall puts an entity on an open board, replacing any entity at the
// same position
func (bs *BoardService) PlaceWall(name string, e models.Entity) (BoardStatus, error) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	ob, err := bs.get(name)
	if err != nil {
		return BoardStatus{}, err
	}
	if !ob.board.InBounds(e.Position) {
		return BoardStatus{}, fmt.Errorf("(%d,%d): %w", e.Position.X, e.Position.Y, ErrOutOfBounds)
	}
	ob.board.Place(e)
	ob.index.Set(e)
	return ob.status(name)
}

// RemoveWall removes the entities at pos from an open board
func (bs *BoardService) RemoveWall(name string, pos models.Position) (BoardStatus, bool, error) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	ob, err := bs.get(name)
	if err != nil {
		return BoardStatus{}, false, err
	}
	removed := ob.board.Remove(pos)
	if removed {
		ob.index.Remove(pos)
	}
	st, err := ob.status(name)
	return st, removed, err
}

// Resize changes the size and scale of an open board. Entities that fall
// outside the new size are dropped; the number dropped is returned.
func (bs *BoardService) Resize(name string, width, height, scale int32) (BoardStatus, int, error) {
	if width <= 0 || height <= 0 {
		return BoardStatus{}, 0, fmt.Errorf("%dx%d: %w", width, height, ErrInvalidSize)
	}

	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	ob, err := bs.get(name)
	if err != nil {
		return BoardStatus{}, 0, err
	}

	b := ob.board
	b.Size = models.Rect{Width: width, Height: height}
	b.Scale = scale

	kept := b.Entities[:0]
	for _, e := range b.Entities {
		if b.InBounds(e.Position) {
			kept = append(kept, e)
		}
	}
	dropped := len(b.Entities) - len(kept)
	b.Entities = kept
	if dropped > 0 {
		ob.index = NewTileIndex(bs.chunkSize, b)
		log.Printf("[BoardService] Resize of %s dropped %d entities", name, dropped)
	}

	st, err := ob.status(name)
	return st, dropped, err
}

// Save writes an open board to the store
func (bs *BoardService) Save(name string) (BoardStatus, error) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	ob, err := bs.get(name)
	if err != nil {
		return BoardStatus{}, err
	}
	if err := bs.db.SaveBoard(name, ob.board); err != nil {
		return BoardStatus{}, fmt.Errorf("failed to save board %s: %w", name, err)
	}

	st, err := ob.status(name)
	if err != nil {
		return BoardStatus{}, err
	}
	ob.savedDigest = st.Digest
	st.Dirty = false
	log.Printf("[BoardService] Saved board %s: %d entities, digest %.12s", name, st.Entities, st.Digest)
	return st, nil
}

// View returns the tile types in the square of the given radius around
// center
func (bs *BoardService) View(name string, center models.Position, radius int32) (*View, error) {
	if radius < 0 || radius > bs.viewRadius {
		return nil, fmt.Errorf("radius %d (max %d): %w", radius, bs.viewRadius, ErrViewTooLarge)
	}

	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	ob, err := bs.get(name)
	if err != nil {
		return nil, err
	}

	diameter := int(radius)*2 + 1
	originX := int64(center.X) - int64(radius)
	originY := int64(center.Y) - int64(radius)

	tiles := make([][]int, diameter)
	for i := range tiles {
		tiles[i] = make([]int, diameter)
		for j := range tiles[i] {
			x, y := originX+int64(j), originY+int64(i)
			if x < 0 || y < 0 || x >= int64(ob.board.Size.Width) || y >= int64(ob.board.Size.Height) {
				tiles[i][j] = ViewOutOfBounds
			} else {
				tiles[i][j] = ViewEmpty
			}
		}
	}

	// Clamp the window to the board so the chunk lookup stays in range.
	minX, minY := max(originX, 0), max(originY, 0)
	maxX := min(originX+int64(diameter)-1, int64(ob.board.Size.Width)-1)
	maxY := min(originY+int64(diameter)-1, int64(ob.board.Size.Height)-1)
	if minX <= maxX && minY <= maxY {
		lo := models.Position{X: int32(minX), Y: int32(minY)}
		hi := models.Position{X: int32(maxX), Y: int32(maxY)}
		for _, chunk := range ob.index.ChunksIn(lo, hi) {
			for pos, e := range chunk.Entities {
				x, y := int64(pos.X), int64(pos.Y)
				if x < minX || x > maxX || y < minY || y > maxY {
					continue
				}
				tiles[y-originY][x-originX] = int(e.Tile.Type)
			}
		}
	}

	return &View{CenterX: center.X, CenterY: center.Y, Radius: radius, Tiles: tiles}, nil
}

// CloseBoard drops an open board from memory. Unsaved changes are lost.
func (bs *BoardService) CloseBoard(name string) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if _, exists := bs.boards[name]; exists {
		delete(bs.boards, name)
		log.Printf("[BoardService] Closed board %s", name)
	}
}

// CloseIfClean closes an open board unless it has unsaved changes, as one
// step under the service lock. It reports whether the board is now closed.
func (bs *BoardService) CloseIfClean(name string) bool {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	ob, exists := bs.boards[name]
	if !exists {
		return true
	}
	st, err := ob.status(name)
	if err != nil || st.Dirty {
		return false
	}
	delete(bs.boards, name)
	log.Printf("[BoardService] Closed board %s", name)
	return true
}

// List returns the boards in the store
func (bs *BoardService) List() ([]persistence.BoardInfo, error) {
	return bs.db.ListBoards()
}

// Export returns the file encoding of a board: the in-memory version when
// it is open, the stored version otherwise
func (bs *BoardService) Export(name string) ([]byte, error) {
	if err := persistence.ValidateName(name); err != nil {
		return nil, err
	}

	bs.mutex.RLock()
	ob, open := bs.boards[name]
	if open {
		defer bs.mutex.RUnlock()
		return codec.Marshal(ob.board)
	}
	bs.mutex.RUnlock()

	board, err := bs.db.LoadBoard(name)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(board)
}
