package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"dao-governance-backend/service"

	"github.com/gin-gonic/gin"
)

// SSEClient is one event-stream connection watching a proposal.
type SSEClient struct {
	ProposalID string
	Writer     http.ResponseWriter
	Flusher    http.Flusher
	Done       chan bool
}

var (
	sseClients   = make(map[string][]*SSEClient)
	sseClientsMu sync.Mutex
)

// HandleSSE streams live result updates for one proposal over
// server-sent events, for clients that cannot hold a websocket.
func HandleSSE(c *gin.Context) {
	proposalID := c.Param("proposalId")

	proposal, err := service.GetProposal(proposalID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	client := &SSEClient{
		ProposalID: proposalID,
		Writer:     c.Writer,
		Flusher:    flusher,
		Done:       make(chan bool, 1),
	}

	sseClientsMu.Lock()
	sseClients[proposalID] = append(sseClients[proposalID], client)
	sseClientsMu.Unlock()

	log.Printf("SSE client registered for proposal %s (%s)", proposalID, c.ClientIP())

	if proposal.Result != nil {
		sendSSEEvent(client, proposal.Result)
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	notify := c.Request.Context().Done()
	for {
		select {
		case <-notify:
			removeSSEClient(client)
			log.Printf("SSE client disconnected from proposal %s", proposalID)
			return
		case <-client.Done:
			removeSSEClient(client)
			return
		case <-heartbeat.C:
			fmt.Fprintf(client.Writer, ": heartbeat\n\n")
			client.Flusher.Flush()
		}
	}
}

// BroadcastSSE pushes a result update to the SSE watchers of a proposal.
func BroadcastSSE(proposalID string, result interface{}) {
	sseClientsMu.Lock()
	watchers := make([]*SSEClient, len(sseClients[proposalID]))
	copy(watchers, sseClients[proposalID])
	sseClientsMu.Unlock()

	for _, client := range watchers {
		sendSSEEvent(client, result)
	}
}

func sendSSEEvent(client *SSEClient, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal SSE payload: %v", err)
		return
	}
	fmt.Fprintf(client.Writer, "data: %s\n\n", payload)
	client.Flusher.Flush()
}

func removeSSEClient(client *SSEClient) {
	sseClientsMu.Lock()
	defer sseClientsMu.Unlock()

	watchers := sseClients[client.ProposalID]
	for i, candidate := range watchers {
		if candidate == client {
			sseClients[client.ProposalID] = append(watchers[:i], watchers[i+1:]...)
			break
		}
	}
	if len(sseClients[client.ProposalID]) == 0 {
		delete(sseClients, client.ProposalID)
	}
}
