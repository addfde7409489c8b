package handlers

import (
	"net/http"
	"runtime"
	"time"

	"dao-governance-backend/database"
	"dao-governance-backend/service"

	"github.com/gin-gonic/gin"
)

// SystemInfo contains basic system metrics and information.
type SystemInfo struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	StartTime    time.Time `json:"start_time"`
	CurrentTime  time.Time `json:"current_time"`
	CurrentEpoch int64     `json:"current_epoch"`
	GoVersion    string    `json:"go_version"`
	NumGoroutine int       `json:"num_goroutine"`
	NumCPU       int       `json:"num_cpu"`
	DBStatus     string    `json:"db_status"`
}

var (
	startTime = time.Now()
	version   = "0.1.0"
)

// HealthCheck provides the basic liveness endpoint.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"epoch":  service.CurrentEpoch(),
		"time":   time.Now().Format(time.RFC3339),
	})
}

// SystemStatus provides detailed system state.
func SystemStatus(c *gin.Context) {
	dbStatus := "ok"
	sqlDB, err := database.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "error"
	}

	info := SystemInfo{
		Status:       "ok",
		Version:      version,
		Uptime:       time.Since(startTime).String(),
		StartTime:    startTime,
		CurrentTime:  time.Now(),
		CurrentEpoch: service.CurrentEpoch(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		DBStatus:     dbStatus,
	}
	c.JSON(http.StatusOK, info)
}

// QueueStats reports the state of the vote event queue.
func QueueStats(c *gin.Context) {
	if mqAdapter == nil {
		c.JSON(http.StatusOK, gin.H{"mode": "uninitialized"})
		return
	}
	c.JSON(http.StatusOK, mqAdapter.GetQueueStats())
}
