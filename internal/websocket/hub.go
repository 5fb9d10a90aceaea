package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/repository"
)

const lookupWindow = 5 * time.Second

// Hub fans match events out to subscribed connections. Services hand it
// events through MatchEvent; it never mutates match state itself.
type Hub struct {
	clients    map[*Client]bool
	subs       map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	subscribe  chan *Client
	broadcast  chan *outbound
	stop       chan struct{}
	done       chan struct{}
	stopped    bool
	matches    repository.MatchRepository
	sessions   repository.SessionRepository
	mu         sync.RWMutex
}

type outbound struct {
	matchID uuid.UUID
	data    []byte
}

func NewHub(matches repository.MatchRepository, sessions repository.SessionRepository) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		subs:       make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan *Client),
		broadcast:  make(chan *outbound, 64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		matches:    matches,
		sessions:   sessions,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.subs = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.handleUnregister(client)

		case client := <-h.subscribe:
			h.handleSubscribe(client)

		case out := <-h.broadcast:
			h.deliver(out)
		}
	}
}

// Stop shuts the hub down and closes every client channel. Blocks until the
// run loop has exited.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

// MatchEvent implements the notifier contract: wrap the payload in a wire
// message and queue it for everyone watching the match.
func (h *Hub) MatchEvent(matchID uuid.UUID, eventType string, payload any) {
	msg, err := NewMessage(MessageType(eventType), payload)
	if err != nil {
		log.Printf("hub: could not build %s event: %v", eventType, err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("hub: could not marshal %s event: %v", eventType, err)
		return
	}

	select {
	case h.broadcast <- &outbound{matchID: matchID, data: data}:
	case <-h.stop:
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stop:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

func (h *Hub) Subscribe(client *Client) {
	select {
	case h.subscribe <- client:
	case <-h.stop:
	}
}

func (h *Hub) handleSubscribe(client *Client) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	if h.subs[client.matchID] == nil {
		h.subs[client.matchID] = make(map[*Client]bool)
	}
	h.subs[client.matchID][client] = true
	client.subscribed = true
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lookupWindow)
	defer cancel()

	if err := h.sessions.Put(ctx, &domain.Session{
		ID:          client.sessionID,
		MatchID:     client.matchID,
		Identity:    client.identity,
		ConnectedAt: time.Now(),
	}); err != nil {
		log.Printf("hub: could not record session for %s: %v", client.identity, err)
	}

	m, err := h.matches.GetByID(ctx, client.matchID)
	if err != nil {
		client.sendError("MATCH_NOT_FOUND", "Match does not exist")
		return
	}

	msg, err := NewMessage(MessageTypeStateSync, StateSyncPayload{
		Match:        BuildMatchView(m),
		YourIdentity: client.identity,
	})
	if err != nil {
		log.Printf("hub: could not build state sync: %v", err)
		return
	}
	client.Send(msg)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	if watchers, ok := h.subs[client.matchID]; ok {
		delete(watchers, client)
		if len(watchers) == 0 {
			delete(h.subs, client.matchID)
		}
	}
	client.Close()
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lookupWindow)
	defer cancel()
	if err := h.sessions.Delete(ctx, client.sessionID); err != nil {
		log.Printf("hub: could not drop session %s: %v", client.sessionID, err)
	}
}

func (h *Hub) deliver(out *outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.subs[out.matchID] {
		select {
		case client.send <- out.data:
		default:
			log.Printf("hub: dropping event for slow client %s", client.sessionID)
		}
	}
}

// WatcherCount reports how many connections are subscribed to a match.
func (h *Hub) WatcherCount(matchID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[matchID])
}
