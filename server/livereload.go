package server

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin
		return true
	},
}

// LiveReload watches a document directory and tells connected pages to
// reload when a markdown document is written.
type LiveReload struct {
	rootDir   string
	watcher   *fsnotify.Watcher
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	broadcast chan []byte
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewLiveReload creates a new LiveReload instance
func NewLiveReload(rootDir string) (*LiveReload, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &LiveReload{
		rootDir:   rootDir,
		watcher:   watcher,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 1),
		stopChan:  make(chan struct{}),
	}, nil
}

// Start begins watching for file changes
func (lr *LiveReload) Start() error {
	if err := lr.watchDirectory(lr.rootDir); err != nil {
		return err
	}

	go lr.watchFiles()
	go lr.broadcastMessages()

	return nil
}

// watchDirectory watches dir and its non-hidden subdirectories. Documents
// live one level down, in one directory per kind.
func (lr *LiveReload) watchDirectory(dir string) error {
	if err := lr.watcher.Add(dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := lr.watchDirectory(filepath.Join(dir, entry.Name())); err != nil {
			log.Printf("LiveReload: Error watching directory %s: %v", entry.Name(), err)
		}
	}
	return nil
}

// watchFiles monitors file system events and triggers reloads
func (lr *LiveReload) watchFiles() {
	for {
		select {
		case event, ok := <-lr.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !strings.HasPrefix(filepath.Base(event.Name), ".") {
						lr.watchDirectory(event.Name)
					}
					continue
				}
			}
			// Writes and renames into place both count as a change.
			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && filepath.Ext(event.Name) == ".md" {
				lr.requestReload()
			}
		case err, ok := <-lr.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("LiveReload: Watcher error: %v", err)
		case <-lr.stopChan:
			return
		}
	}
}

// requestReload queues a reload for all clients. Requests made while one is
// still queued are merged into it.
func (lr *LiveReload) requestReload() {
	select {
	case lr.broadcast <- []byte("reload"):
	default:
		// A reload is already pending.
	}
}

// broadcastMessages sends messages to all connected clients
func (lr *LiveReload) broadcastMessages() {
	for {
		select {
		case message := <-lr.broadcast:
			var failed []*websocket.Conn
			lr.clientsMu.RLock()
			for client := range lr.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("LiveReload: Error writing to client: %v", err)
					failed = append(failed, client)
				}
			}
			lr.clientsMu.RUnlock()

			if len(failed) > 0 {
				lr.clientsMu.Lock()
				for _, client := range failed {
					delete(lr.clients, client)
					client.Close()
				}
				lr.clientsMu.Unlock()
			}
		case <-lr.stopChan:
			return
		}
	}
}

// HandleWebSocket handles WebSocket connections for live reload
func (lr *LiveReload) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	lr.clientsMu.Lock()
	lr.clients[conn] = true
	lr.clientsMu.Unlock()

	go func() {
		defer func() {
			lr.clientsMu.Lock()
			delete(lr.clients, conn)
			lr.clientsMu.Unlock()
			conn.Close()
		}()

		// Read loop to detect disconnection
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (lr *LiveReload) clientCount() int {
	lr.clientsMu.RLock()
	defer lr.clientsMu.RUnlock()
	return len(lr.clients)
}

// Stop stops the file watcher and closes all connections
func (lr *LiveReload) Stop() {
	lr.stopOnce.Do(func() {
		close(lr.stopChan)
		lr.watcher.Close()

		lr.clientsMu.Lock()
		for client := range lr.clients {
			client.Close()
		}
		lr.clients = make(map[*websocket.Conn]bool)
		lr.clientsMu.Unlock()

		log.Println("LiveReload: Stopped")
	})
}
