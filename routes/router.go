package routes

import (
	"log"
	"net/http"
	"os"
	"time"

	"dao-governance-backend/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP server.
type Server struct {
	*http.Server
}

// SetupRouter configures the Gin engine and all API routes.
func SetupRouter() *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Owner-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.InitRateLimiter()

	api := router.Group("/api")
	{
		api.Use(handlers.RateLimitMiddleware())

		api.GET("/health", handlers.HealthCheck)
		api.GET("/status", handlers.SystemStatus)
		api.GET("/queue/stats", handlers.QueueStats)

		daos := api.Group("/daos")
		{
			daos.POST("", handlers.CreateDao)
			daos.GET("", handlers.ListDaos)
			daos.GET("/:id", handlers.GetDao)
			daos.PUT("/:id", handlers.UpdateDao)
			daos.POST("/:id/badges", handlers.MintAdminBadge)

			daos.POST("/:id/proposals", handlers.CreateProposal)
			daos.GET("/:id/proposals", handlers.ListProposals)
			daos.POST("/:id/proposals/:proposalId/options", handlers.AddProposalOption)
		}

		proposals := api.Group("/proposals")
		{
			proposals.GET("/:proposalId", handlers.GetProposal)
			proposals.GET("/:proposalId/result", handlers.GetProposalResult)
			proposals.GET("/:proposalId/votes", handlers.GetVotes)
			proposals.POST("/:proposalId/votes", handlers.CastVote)

			proposals.GET("/:proposalId/ws", handlers.HandleWebSocket)
			proposals.GET("/:proposalId/live", handlers.HandleSSE)
		}

		tokens := api.Group("/tokens")
		{
			tokens.POST("", handlers.RegisterToken)
			tokens.GET("/:address", handlers.GetToken)
			tokens.POST("/:address/instances", handlers.MintTokenInstances)
			tokens.POST("/:address/transfer", handlers.TransferTokenInstance)
			tokens.GET("/:address/holders/:holder", handlers.ListHolderInstances)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/platform", handlers.GetPlatformConfig)
			admin.POST("/platform/price", handlers.SetProposalCreationPrice)
			admin.POST("/platform/withdraw", handlers.WithdrawFees)
			admin.POST("/platform/epoch", handlers.SetEpoch)
		}
	}

	return router
}

// StartServer starts the HTTP server on SERVER_PORT (default 8090).
func StartServer(router *gin.Engine) *Server {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8090"
	}
	addr := ":" + port

	srv := &Server{
		&http.Server{
			Addr:    addr,
			Handler: router,
		},
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	return srv
}
