package handlers

import (
	"log"
	"sync"
)

// ClientManager tracks which clients are editing which board
type ClientManager struct {
	boards map[string]map[*ClientHandler]struct{}
	mutex  sync.RWMutex
}

// NewClientManager creates a new client manager
func NewClientManager() *ClientManager {
	return &ClientManager{
		boards: make(map[string]map[*ClientHandler]struct{}),
	}
}

// AddClient registers a client as an editor of board
func (cm *ClientManager) AddClient(board string, handler *ClientHandler) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	clients, exists := cm.boards[board]
	if !exists {
		clients = make(map[*ClientHandler]struct{})
		cm.boards[board] = clients
	}
	clients[handler] = struct{}{}
}

// RemoveClient unregisters a client from board and reports how many
// editors the board has left. When none are left, whenEmpty runs before
// the lock is released, so no client can join the board until it returns.
func (cm *ClientManager) RemoveClient(board string, handler *ClientHandler, whenEmpty func()) int {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	clients := cm.boards[board]
	delete(clients, handler)
	if len(clients) > 0 {
		return len(clients)
	}
	delete(cm.boards, board)
	if whenEmpty != nil {
		whenEmpty()
	}
	return 0
}

// ClientCount returns the number of clients editing board
func (cm *ClientManager) ClientCount(board string) int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.boards[board])
}

// BroadcastToBoard sends a message to every client editing board
func (cm *ClientManager) BroadcastToBoard(board string, msg interface{}) {
	cm.ExecuteOnBoard(board, func(client *ClientHandler) {
		if err := client.conn.SendMessage(msg); err != nil {
			log.Printf("[ClientManager] Error broadcasting to a client of %s: %v", board, err)
		}
	})
}

// BroadcastBinaryToBoard sends a binary frame to every client editing board
func (cm *ClientManager) BroadcastBinaryToBoard(board string, data []byte) {
	cm.ExecuteOnBoard(board, func(client *ClientHandler) {
		if err := client.conn.SendBinary(data); err != nil {
			log.Printf("[ClientManager] Error sending snapshot to a client of %s: %v", board, err)
		}
	})
}

// ExecuteOnBoard executes a function for each client editing board
func (cm *ClientManager) ExecuteOnBoard(board string, action func(*ClientHandler)) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for client := range cm.boards[board] {
		action(client)
	}
}
