package handlers

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// BroadcastMessage is one live update fanned out to the watchers of a
// proposal.
type BroadcastMessage struct {
	ProposalID string      `json:"proposal_id"`
	Result     interface{} `json:"result"`
}

// Hub tracks the websocket clients watching each proposal and fans
// result updates out to them.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex

	maxConnections   int
	totalConnections int

	// Last message per proposal, replayed to late joiners.
	lastMessage map[string][]byte
	historyMu   sync.RWMutex
}

var (
	GlobalHub *Hub
	hubOnce   sync.Once
)

func init() {
	hubOnce.Do(func() {
		GlobalHub = &Hub{
			clients:        make(map[string]map[*Client]bool),
			register:       make(chan *Client),
			unregister:     make(chan *Client),
			broadcast:      make(chan *BroadcastMessage, 64),
			maxConnections: 10000,
			lastMessage:    make(map[string][]byte),
		}
		go GlobalHub.run()
	})
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.proposalID]; !ok {
				h.clients[client.proposalID] = make(map[*Client]bool)
			}
			h.clients[client.proposalID][client] = true
			h.totalConnections++
			total := h.totalConnections
			h.mu.Unlock()

			log.Printf("WebSocket client connected [proposal: %s, total: %d]", client.proposalID, total)
			h.replayLastMessage(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if watchers, ok := h.clients[client.proposalID]; ok {
				if _, present := watchers[client]; present {
					delete(watchers, client)
					close(client.send)
					h.totalConnections--
					if len(watchers) == 0 {
						delete(h.clients, client.proposalID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			payload, err := json.Marshal(message)
			if err != nil {
				log.Printf("Failed to marshal broadcast message: %v", err)
				continue
			}
			h.storeLastMessage(message.ProposalID, payload)

			h.mu.Lock()
			watchers := h.clients[message.ProposalID]
			for client := range watchers {
				select {
				case client.send <- payload:
				default:
					// Slow clients are dropped inline; re-entering
					// the unregister channel from here would block
					// the hub on itself.
					delete(watchers, client)
					close(client.send)
					h.totalConnections--
				}
			}
			if len(watchers) == 0 {
				delete(h.clients, message.ProposalID)
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a result update for the watchers of a proposal.
func (h *Hub) Broadcast(proposalID string, result interface{}) {
	message := &BroadcastMessage{ProposalID: proposalID, Result: result}
	select {
	case h.broadcast <- message:
	case <-time.After(time.Second):
		log.Printf("Broadcast channel full, dropping update for proposal %s", proposalID)
	}
}

// ClientCount reports the number of clients watching one proposal.
func (h *Hub) ClientCount(proposalID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[proposalID])
}

func (h *Hub) storeLastMessage(proposalID string, payload []byte) {
	h.historyMu.Lock()
	h.lastMessage[proposalID] = payload
	h.historyMu.Unlock()
}

func (h *Hub) replayLastMessage(client *Client) {
	h.historyMu.RLock()
	payload, ok := h.lastMessage[client.proposalID]
	h.historyMu.RUnlock()
	if !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}
