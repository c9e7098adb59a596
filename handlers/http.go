package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/dhackz/feather-of-despair/persistence"
	"github.com/dhackz/feather-of-despair/services"
)

var upgrader = websocket.Upgrader{
	// Editors connect from local tools, not browsers on other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewRouter returns the HTTP routes of the board server:
//
//	/ws             editor websocket
//	/boards         JSON list of stored boards
//	/boards/{name}  board file download
func NewRouter(boardService *services.BoardService, clientManager *ClientManager) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[HTTP] Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		HandleClientConnection(conn, boardService, clientManager)
	})

	mux.HandleFunc("/boards", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		boards, err := boardService.List()
		if err != nil {
			log.Printf("[HTTP] Listing boards failed: %v", err)
			http.Error(w, "failed to list boards", http.StatusInternalServerError)
			return
		}
		if boards == nil {
			boards = []persistence.BoardInfo{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(boards)
	})

	mux.HandleFunc("/boards/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/boards/")
		if err := persistence.ValidateName(name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data, err := boardService.Export(name)
		if err != nil {
			if errors.Is(err, persistence.ErrBoardNotFound) {
				http.NotFound(w, r)
				return
			}
			log.Printf("[HTTP] Export of %s failed: %v", name, err)
			http.Error(w, "failed to export board", http.StatusInternalServerError)
			return
		}

		etag := `"` + persistence.Digest(data) + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+persistence.FileExt+`"`)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(data); err != nil {
			log.Printf("[HTTP] Writing %s failed: %v", name, err)
		}
	})

	return mux
}
