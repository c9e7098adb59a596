package messages

import (
	"encoding/json"

	"github.com/dhackz/feather-of-despair/models"
	"github.com/dhackz/feather-of-despair/persistence"
	"github.com/dhackz/feather-of-despair/services"
)

// MessageType defines the type of message being sent
type MessageType string

const (
	// Requests
	MessageTypeOpen       MessageType = "open"
	MessageTypePlaceWall  MessageType = "place_wall"
	MessageTypeRemoveWall MessageType = "remove_wall"
	MessageTypeResize     MessageType = "resize"
	MessageTypeSave       MessageType = "save"
	MessageTypeView       MessageType = "view"
	MessageTypeList       MessageType = "list"

	// Responses and broadcasts
	MessageTypeBoardInfo MessageType = "board_info"
	MessageTypeUpdate    MessageType = "update"
	MessageTypeBoards    MessageType = "boards"
	MessageTypeError     MessageType = "error"
)

// BaseMessage is the structure of every outgoing text message. Board
// snapshots are not wrapped: they are sent as binary frames holding the
// board file bytes.
type BaseMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// IncomingMessage is a request from an editor. The payload is decoded
// once the type is known.
type IncomingMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OpenMessage asks to open (or create) a board for editing
type OpenMessage struct {
	Board string `json:"board"`
}

// PlaceWallMessage places a tile at a position
type PlaceWallMessage struct {
	X    int32       `json:"x"`
	Y    int32       `json:"y"`
	Tile models.Tile `json:"tile"`
}

// RemoveWallMessage removes the tile at a position
type RemoveWallMessage struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// ResizeMessage changes the board size and scale
type ResizeMessage struct {
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
	Scale  int32 `json:"scale"`
}

// ViewMessage asks for the tiles around a point
type ViewMessage struct {
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
	Radius int32 `json:"radius"`
}

// UpdateMessage is broadcast to every editor of a board after a change.
// At most one of Placed and Removed is set; neither is set when the whole
// board changed and a snapshot follows.
type UpdateMessage struct {
	Board   services.BoardStatus `json:"board"`
	Placed  *models.Entity       `json:"placed,omitempty"`
	Removed *models.Position     `json:"removed,omitempty"`
	Dropped int                  `json:"dropped,omitempty"`
}

// BoardsMessage lists stored boards
type BoardsMessage struct {
	Boards []persistence.BoardInfo `json:"boards"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
