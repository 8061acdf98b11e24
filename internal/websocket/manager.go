package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"lexisync/internal/domain"
)

// Manager fans session events out to every connected UI surface. One
// daemon serves one user, so there is a flat client set rather than a
// per-user index; several windows (overlay, editor, settings) may be
// attached at once.
type Manager struct {
	clients      map[string]*Client
	clientsMutex sync.RWMutex
	Register     chan *Client
	Unregister   chan *Client
	maxClients   int
	writeWait    time.Duration
	pongWait     time.Duration
	pingPeriod   time.Duration
}

func NewManager(maxClients int, writeWait, pongWait, pingPeriod time.Duration) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		maxClients: maxClients,
		writeWait:  writeWait,
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if len(m.clients) >= m.maxClients {
		log.Printf("[Hub] max UI connections reached, refusing %s", client.ID)
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	log.Printf("[Hub] UI client connected: %s", client.ID)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		close(client.Send)
		log.Printf("[Hub] UI client disconnected: %s", client.ID)
	}
}

// Broadcast sends a message to every attached UI client.
func (m *Manager) Broadcast(message *Message) {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("[Hub] failed to marshal broadcast: %v", err)
		return
	}

	for id, client := range m.clients {
		select {
		case client.Send <- messageBytes:
		default:
			log.Printf("[Hub] client %s send buffer full, dropping connection", id)
			go func(c *Client) { m.Unregister <- c }(client)
		}
	}
}

func (m *Manager) ClientCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// StateChanged implements the session's Notifier.
func (m *Manager) StateChanged(c domain.Classification) {
	msg, err := NewMessage(TypeStateChanged, &StateChangedPayload{
		State:     c.State,
		Direction: c.Direction,
	})
	if err != nil {
		log.Printf("[Hub] failed to build state message: %v", err)
		return
	}
	m.Broadcast(msg)
}

// RemoteChanged implements the session's Notifier.
func (m *Manager) RemoteChanged(hash string) {
	msg, err := NewMessage(TypeRemoteChanged, &RemoteChangedPayload{Hash: hash})
	if err != nil {
		log.Printf("[Hub] failed to build remote-changed message: %v", err)
		return
	}
	m.Broadcast(msg)
}

// MergeRequired implements the session's Notifier.
func (m *Manager) MergeRequired(conflictCount int) {
	msg, err := NewMessage(TypeMergeRequired, &MergeRequiredPayload{ConflictCount: conflictCount})
	if err != nil {
		log.Printf("[Hub] failed to build merge message: %v", err)
		return
	}
	m.Broadcast(msg)
}

// AuthCompleted announces the terminal outcome of a login flow.
func (m *Manager) AuthCompleted(phase domain.AuthPhase, username string) {
	msg, err := NewMessage(TypeAuthCompleted, &AuthCompletedPayload{
		Phase:    phase,
		Username: username,
	})
	if err != nil {
		log.Printf("[Hub] failed to build auth message: %v", err)
		return
	}
	m.Broadcast(msg)
}
