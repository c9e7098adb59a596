package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dhackz/feather-of-despair/codec"
	"github.com/dhackz/feather-of-despair/config"
	"github.com/dhackz/feather-of-despair/messages"
	"github.com/dhackz/feather-of-despair/models"
	"github.com/dhackz/feather-of-despair/persistence"
	"github.com/dhackz/feather-of-despair/services"
)

type testServer struct {
	*httptest.Server
	boards *services.BoardService
	store  *persistence.FileStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := persistence.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.NewBoard = config.BoardDefaults{Width: 8, Height: 8, Scale: 1}
	boards := services.NewBoardService(store, cfg)
	srv := httptest.NewServer(NewRouter(boards, NewClientManager()))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, boards: boards, store: store}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type reply struct {
	Type    messages.MessageType `json:"type"`
	Payload json.RawMessage      `json:"payload"`
}

func send(t *testing.T, conn *websocket.Conn, msgType messages.MessageType, payload interface{}) {
	t.Helper()
	if err := conn.WriteJSON(map[string]interface{}{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("send %s: %v", msgType, err)
	}
}

// next reads the next frame. Binary frames are returned as data with a
// nil reply.
func next(t *testing.T, conn *websocket.Conn) (*reply, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if messageType == websocket.BinaryMessage {
		return nil, data
	}
	var r reply
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("bad reply %s: %v", data, err)
	}
	return &r, nil
}

func expect(t *testing.T, conn *websocket.Conn, want messages.MessageType, v interface{}) {
	t.Helper()
	r, _ := next(t, conn)
	if r == nil || r.Type != want {
		t.Fatalf("want %s, got %+v", want, r)
	}
	if v != nil {
		if err := json.Unmarshal(r.Payload, v); err != nil {
			t.Fatalf("payload %s: %v", r.Payload, err)
		}
	}
}

func openBoard(t *testing.T, conn *websocket.Conn, name string) (services.BoardStatus, *models.Board) {
	t.Helper()
	send(t, conn, messages.MessageTypeOpen, messages.OpenMessage{Board: name})
	var status services.BoardStatus
	expect(t, conn, messages.MessageTypeBoardInfo, &status)
	r, data := next(t, conn)
	if r != nil {
		t.Fatalf("want snapshot, got %+v", r)
	}
	board, err := codec.Unmarshal(data)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return status, board
}

func TestOpenEditSave(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t)

	status, board := openBoard(t, conn, "castle")
	if status.Name != "castle" || board.Size.Width != 8 || len(board.Entities) != 0 {
		t.Fatalf("status %+v board %+v", status, board)
	}

	send(t, conn, messages.MessageTypePlaceWall, map[string]interface{}{
		"x": 2, "y": 3, "tile": map[string]interface{}{"type": "wall", "movement_blocking": true, "vision_blocking": true},
	})
	var update messages.UpdateMessage
	expect(t, conn, messages.MessageTypeUpdate, &update)
	if update.Placed == nil || update.Placed.Position != (models.Position{X: 2, Y: 3}) || update.Board.Entities != 1 || !update.Board.Dirty {
		t.Fatalf("update %+v", update)
	}

	send(t, conn, messages.MessageTypePlaceWall, messages.PlaceWallMessage{X: 99, Y: 0, Tile: models.NewWall()})
	var errMsg messages.ErrorMessage
	expect(t, conn, messages.MessageTypeError, &errMsg)
	if errMsg.Code != "EDIT_FAILED" {
		t.Fatalf("error %+v", errMsg)
	}

	send(t, conn, messages.MessageTypeSave, nil)
	update = messages.UpdateMessage{}
	expect(t, conn, messages.MessageTypeUpdate, &update)
	if update.Board.Dirty {
		t.Fatalf("dirty after save: %+v", update)
	}

	stored, err := srv.store.LoadBoard("castle")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Entities) != 1 || stored.Entities[0].Tile != models.NewWall() {
		t.Fatalf("stored %+v", stored)
	}
}

func TestBroadcastToOtherEditors(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.dial(t)
	bob := srv.dial(t)
	openBoard(t, alice, "shared")
	openBoard(t, bob, "shared")

	send(t, alice, messages.MessageTypePlaceWall, messages.PlaceWallMessage{X: 1, Y: 1, Tile: models.NewWall()})
	var update messages.UpdateMessage
	expect(t, bob, messages.MessageTypeUpdate, &update)
	if update.Placed == nil || update.Board.Entities != 1 {
		t.Fatalf("bob got %+v", update)
	}
	expect(t, alice, messages.MessageTypeUpdate, nil)

	send(t, bob, messages.MessageTypeRemoveWall, messages.RemoveWallMessage{X: 1, Y: 1})
	update = messages.UpdateMessage{}
	expect(t, alice, messages.MessageTypeUpdate, &update)
	if update.Removed == nil || update.Board.Entities != 0 {
		t.Fatalf("alice got %+v", update)
	}
}

func TestUploadBinaryBoard(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t)
	openBoard(t, conn, "upload")

	upload := models.NewBoard(4, 4, 5)
	upload.Place(models.Entity{Position: models.Position{X: 3, Y: 3}, Tile: models.NewTile(models.TileTree)})
	data, err := codec.Marshal(upload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatal(err)
	}
	var update messages.UpdateMessage
	expect(t, conn, messages.MessageTypeUpdate, &update)
	if update.Board.Scale != 5 || update.Board.Entities != 1 {
		t.Fatalf("update %+v", update)
	}
	_, snapshot := next(t, conn)
	got, err := codec.Unmarshal(snapshot)
	if err != nil || !got.Equal(upload) {
		t.Fatalf("snapshot %v %+v", err, got)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, data[:len(data)-1]); err != nil {
		t.Fatal(err)
	}
	var errMsg messages.ErrorMessage
	expect(t, conn, messages.MessageTypeError, &errMsg)
	if errMsg.Code != "UPLOAD_FAILED" || !strings.Contains(errMsg.Message, "truncated") {
		t.Fatalf("error %+v", errMsg)
	}
}

func TestViewAndList(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t)
	openBoard(t, conn, "viewed")

	send(t, conn, messages.MessageTypePlaceWall, messages.PlaceWallMessage{X: 0, Y: 0, Tile: models.NewTile(models.TileLava)})
	expect(t, conn, messages.MessageTypeUpdate, nil)

	send(t, conn, messages.MessageTypeView, messages.ViewMessage{X: 0, Y: 0, Radius: 1})
	var view services.View
	expect(t, conn, messages.MessageTypeView, &view)
	if view.Tiles[1][1] != int(models.TileLava) || view.Tiles[0][0] != services.ViewOutOfBounds {
		t.Fatalf("view %+v", view.Tiles)
	}

	send(t, conn, messages.MessageTypeSave, nil)
	expect(t, conn, messages.MessageTypeUpdate, nil)
	send(t, conn, messages.MessageTypeList, nil)
	var list messages.BoardsMessage
	expect(t, conn, messages.MessageTypeBoards, &list)
	if len(list.Boards) != 1 || list.Boards[0].Name != "viewed" {
		t.Fatalf("list %+v", list)
	}
}

func TestRequestsNeedOpenBoard(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t)

	send(t, conn, messages.MessageTypeSave, nil)
	var errMsg messages.ErrorMessage
	expect(t, conn, messages.MessageTypeError, &errMsg)
	if errMsg.Code != "SAVE_FAILED" {
		t.Fatalf("error %+v", errMsg)
	}

	send(t, conn, "teleport", nil)
	expect(t, conn, messages.MessageTypeError, &errMsg)
	if errMsg.Code != "UNKNOWN_MESSAGE_TYPE" {
		t.Fatalf("error %+v", errMsg)
	}
}

func TestHTTPDownload(t *testing.T) {
	srv := newTestServer(t)
	board := models.NewBoard(3, 3, 1)
	board.Place(models.Entity{Position: models.Position{X: 1, Y: 1}, Tile: models.NewWall()})
	if err := srv.store.SaveBoard("dl", board); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/boards/dl")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	got, err := codec.Unmarshal(data)
	if err != nil || !got.Equal(board) {
		t.Fatalf("download %v %+v", err, got)
	}
	etag := resp.Header.Get("ETag")
	if etag != `"`+persistence.Digest(data)+`"` {
		t.Fatalf("etag %s", etag)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/boards/dl", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional get status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/boards/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing board status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/boards")
	if err != nil {
		t.Fatal(err)
	}
	var infos []persistence.BoardInfo
	json.NewDecoder(resp.Body).Decode(&infos)
	resp.Body.Close()
	if len(infos) != 1 || infos[0].Name != "dl" {
		t.Fatalf("list %+v", infos)
	}
}
