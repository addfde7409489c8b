package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dao-governance-backend/cache"
	"dao-governance-backend/database"
	"dao-governance-backend/epoch"
	"dao-governance-backend/handlers"
	"dao-governance-backend/models"
	"dao-governance-backend/mq"
	"dao-governance-backend/routes"
	"dao-governance-backend/service"
)

var mqAdapter *mq.MQAdapter

func main() {
	if err := database.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Database connection established")

	service.SetEpochProvider(epoch.FromEnv())
	log.Printf("Ledger clock initialized at epoch %d", service.CurrentEpoch())

	if err := cache.InitRedis(); err != nil {
		log.Printf("Warning: Redis initialization failed: %v", err)
	} else {
		log.Println("Redis connection established")
	}
	cache.InitDistLock()

	mqAdapter = mq.NewMQAdapter()
	if err := mqAdapter.Initialize(); err != nil {
		log.Printf("Warning: message queue initialization failed, votes are processed synchronously: %v", err)
	}
	if err := mqAdapter.RegisterHandler(broadcastVoteEvent); err != nil {
		log.Printf("Warning: failed to register vote event handler: %v", err)
	}

	handlers.InitHandlers(mqAdapter)

	router := routes.SetupRouter()
	srv := routes.StartServer(router)

	log.Printf("Message queue stats: %v", mqAdapter.GetQueueStats())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shut down: %v", err)
	}

	database.CloseDB()
	cache.CloseRedis()
	mqAdapter.Close()

	log.Println("Server exited cleanly")
}

// broadcastVoteEvent fans a committed vote out to the live watchers. The
// result read prefers the cache and falls back to the database row.
func broadcastVoteEvent(event mq.VoteEvent) error {
	var result models.ProposalResult
	if err := cache.GetProposalResult(event.ProposalID, &result); err != nil {
		proposal, err := service.GetProposal(event.ProposalID)
		if err != nil {
			log.Printf("Failed to load result for proposal %s: %v", event.ProposalID, err)
			return err
		}
		if proposal.Result == nil {
			return nil
		}
		result = *proposal.Result
	}

	handlers.GlobalHub.Broadcast(event.ProposalID, result)
	handlers.BroadcastSSE(event.ProposalID, result)
	return nil
}
