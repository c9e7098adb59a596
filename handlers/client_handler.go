package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/gorilla/websocket"

	"github.com/dhackz/feather-of-despair/codec"
	"github.com/dhackz/feather-of-despair/messages"
	"github.com/dhackz/feather-of-despair/models"
	"github.com/dhackz/feather-of-despair/network"
	"github.com/dhackz/feather-of-despair/persistence"
	"github.com/dhackz/feather-of-despair/services"
)

// ClientHandler manages a single editor connection
type ClientHandler struct {
	conn          *network.Connection
	boardService  *services.BoardService
	clientManager *ClientManager
	board         string
}

// HandleClientConnection serves one editor until its connection closes
func HandleClientConnection(wsConn *websocket.Conn, boardService *services.BoardService, clientManager *ClientManager) {
	log.Printf("[ClientHandler] New connection from %s", wsConn.RemoteAddr())

	conn := network.NewConnection(wsConn)
	handler := &ClientHandler{
		conn:          conn,
		boardService:  boardService,
		clientManager: clientManager,
	}

	// Start the write pump in a goroutine
	go conn.WritePump()

	// Handle the read pump in the current goroutine
	conn.ReadPump(handler)

	handler.leaveBoard()
	log.Printf("[ClientHandler] Connection from %s closed", wsConn.RemoteAddr())
}

// HandleMessage dispatches a request from the editor
func (h *ClientHandler) HandleMessage(conn *network.Connection, messageType int, message []byte) {
	if messageType == websocket.BinaryMessage {
		h.handleUpload(message)
		return
	}

	var msg messages.IncomingMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		h.sendError("BAD_MESSAGE", fmt.Errorf("invalid message: %w", err))
		return
	}

	var err error
	switch msg.Type {
	case messages.MessageTypeOpen:
		err = h.handleOpen(msg.Payload)
	case messages.MessageTypePlaceWall:
		err = h.handlePlaceWall(msg.Payload)
	case messages.MessageTypeRemoveWall:
		err = h.handleRemoveWall(msg.Payload)
	case messages.MessageTypeResize:
		err = h.handleResize(msg.Payload)
	case messages.MessageTypeSave:
		err = h.handleSave()
	case messages.MessageTypeView:
		err = h.handleView(msg.Payload)
	case messages.MessageTypeList:
		err = h.handleList()
	default:
		log.Printf("[ClientHandler] Unknown message type: %s", msg.Type)
		h.sendError("UNKNOWN_MESSAGE_TYPE", fmt.Errorf("unknown message type %q", msg.Type))
		return
	}
	if err != nil {
		h.sendError(errorCode(msg.Type), err)
	}
}

func errorCode(t messages.MessageType) string {
	switch t {
	case messages.MessageTypeOpen:
		return "OPEN_FAILED"
	case messages.MessageTypeSave:
		return "SAVE_FAILED"
	case messages.MessageTypeView:
		return "VIEW_FAILED"
	case messages.MessageTypeList:
		return "LIST_FAILED"
	default:
		return "EDIT_FAILED"
	}
}

var errNoBoard = errors.New("no board open")

func decodePayload(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// handleOpen opens a board and sends its status followed by a snapshot
func (h *ClientHandler) handleOpen(payload json.RawMessage) error {
	var openMsg messages.OpenMessage
	if err := decodePayload(payload, &openMsg); err != nil {
		return err
	}

	status, snapshot, err := h.joinBoard(openMsg.Board)
	if err != nil {
		return err
	}

	if err := h.conn.SendMessage(messages.BaseMessage{Type: messages.MessageTypeBoardInfo, Payload: status}); err != nil {
		return err
	}
	return h.conn.SendBinary(snapshot)
}

func (h *ClientHandler) handlePlaceWall(payload json.RawMessage) error {
	if h.board == "" {
		return errNoBoard
	}
	var placeMsg messages.PlaceWallMessage
	if err := decodePayload(payload, &placeMsg); err != nil {
		return err
	}

	entity := models.Entity{
		Position: models.Position{X: placeMsg.X, Y: placeMsg.Y},
		Tile:     placeMsg.Tile,
	}
	status, err := h.boardService.PlaceWall(h.board, entity)
	if err != nil {
		return err
	}
	h.broadcastUpdate(messages.UpdateMessage{Board: status, Placed: &entity})
	return nil
}

func (h *ClientHandler) handleRemoveWall(payload json.RawMessage) error {
	if h.board == "" {
		return errNoBoard
	}
	var removeMsg messages.RemoveWallMessage
	if err := decodePayload(payload, &removeMsg); err != nil {
		return err
	}

	pos := models.Position{X: removeMsg.X, Y: removeMsg.Y}
	status, removed, err := h.boardService.RemoveWall(h.board, pos)
	if err != nil {
		return err
	}
	if removed {
		h.broadcastUpdate(messages.UpdateMessage{Board: status, Removed: &pos})
	}
	return nil
}

func (h *ClientHandler) handleResize(payload json.RawMessage) error {
	if h.board == "" {
		return errNoBoard
	}
	var resizeMsg messages.ResizeMessage
	if err := decodePayload(payload, &resizeMsg); err != nil {
		return err
	}

	status, dropped, err := h.boardService.Resize(h.board, resizeMsg.Width, resizeMsg.Height, resizeMsg.Scale)
	if err != nil {
		return err
	}
	h.broadcastUpdate(messages.UpdateMessage{Board: status, Dropped: dropped})
	if dropped > 0 {
		return h.broadcastSnapshot()
	}
	return nil
}

func (h *ClientHandler) handleSave() error {
	if h.board == "" {
		return errNoBoard
	}
	status, err := h.boardService.Save(h.board)
	if err != nil {
		log.Printf("[ClientHandler] Save of %s failed: %v", h.board, err)
		return err
	}
	h.broadcastUpdate(messages.UpdateMessage{Board: status})
	return nil
}

func (h *ClientHandler) handleView(payload json.RawMessage) error {
	if h.board == "" {
		return errNoBoard
	}
	var viewMsg messages.ViewMessage
	if err := decodePayload(payload, &viewMsg); err != nil {
		return err
	}

	view, err := h.boardService.View(h.board, models.Position{X: viewMsg.X, Y: viewMsg.Y}, viewMsg.Radius)
	if err != nil {
		return err
	}
	return h.conn.SendMessage(messages.BaseMessage{Type: messages.MessageTypeView, Payload: view})
}

func (h *ClientHandler) handleList() error {
	boards, err := h.boardService.List()
	if err != nil {
		return err
	}
	if boards == nil {
		boards = []persistence.BoardInfo{}
	}
	return h.conn.SendMessage(messages.BaseMessage{
		Type:    messages.MessageTypeBoards,
		Payload: messages.BoardsMessage{Boards: boards},
	})
}

// handleUpload replaces the open board with a board file sent as a binary
// frame
func (h *ClientHandler) handleUpload(data []byte) {
	if h.board == "" {
		h.sendError("UPLOAD_FAILED", errNoBoard)
		return
	}
	status, err := h.boardService.Replace(h.board, data)
	if err != nil {
		var be *codec.Error
		if errors.As(err, &be) {
			log.Printf("[ClientHandler] Rejected upload for %s: %v", h.board, be)
		}
		h.sendError("UPLOAD_FAILED", err)
		return
	}
	h.broadcastUpdate(messages.UpdateMessage{Board: status})
	if err := h.broadcastSnapshot(); err != nil {
		log.Printf("[ClientHandler] Snapshot of %s failed: %v", h.board, err)
	}
}

func (h *ClientHandler) broadcastUpdate(update messages.UpdateMessage) {
	h.clientManager.BroadcastToBoard(h.board, messages.BaseMessage{
		Type:    messages.MessageTypeUpdate,
		Payload: update,
	})
}

func (h *ClientHandler) broadcastSnapshot() error {
	snapshot, err := h.boardService.Snapshot(h.board)
	if err != nil {
		return err
	}
	h.clientManager.BroadcastBinaryToBoard(h.board, snapshot)
	return nil
}

// joinBoard opens a board and makes it the current one, returning its
// status and a snapshot. The client registers before opening so the board
// cannot be closed under it by an editor leaving at the same time.
func (h *ClientHandler) joinBoard(name string) (services.BoardStatus, []byte, error) {
	joining := name != h.board
	if joining {
		h.clientManager.AddClient(name, h)
	}

	status, err := h.boardService.Open(name)
	var snapshot []byte
	if err == nil {
		snapshot, err = h.boardService.Snapshot(name)
	}
	if err != nil {
		if joining {
			h.removeFrom(name)
		}
		return services.BoardStatus{}, nil, err
	}

	if joining {
		h.leaveBoard()
		h.board = name
	}
	return status, snapshot, nil
}

// leaveBoard unregisters from the current board
func (h *ClientHandler) leaveBoard() {
	if h.board == "" {
		return
	}
	board := h.board
	h.board = ""
	h.removeFrom(board)
}

// removeFrom unregisters from board. The last editor to leave a board
// without unsaved changes closes it.
func (h *ClientHandler) removeFrom(board string) {
	h.clientManager.RemoveClient(board, h, func() {
		if !h.boardService.CloseIfClean(board) {
			log.Printf("[ClientHandler] Keeping %s open: unsaved changes", board)
		}
	})
}

func (h *ClientHandler) sendError(code string, err error) {
	errMsg := messages.BaseMessage{
		Type: messages.MessageTypeError,
		Payload: messages.ErrorMessage{
			Code:    code,
			Message: err.Error(),
		},
	}
	if sendErr := h.conn.SendMessage(errMsg); sendErr != nil {
		log.Printf("[ClientHandler] Error sending %s: %v", code, sendErr)
	}
}
