package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"dao-governance-backend/migrations"
	"dao-governance-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database handle.
var DB *gorm.DB

// InitDB opens the database connection and migrates the governance schema.
// MySQL is the production driver; setting DB_DRIVER=sqlite switches to a
// file-backed SQLite database for local development.
func InitDB() error {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	gormConfig := &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	}

	var err error
	switch getEnv("DB_DRIVER", "mysql") {
	case "sqlite":
		dsn := getEnv("DB_PATH", "governance.db")
		log.Printf("Using SQLite database at %s", dsn)
		DB, err = gorm.Open(sqlite.Open(dsn), gormConfig)
	default:
		dbUser := getEnv("DB_USER", "daouser")
		dbPassword := getEnv("DB_PASSWORD", "daopassword")
		dbHost := getEnv("DB_HOST", "mysql")
		dbPort := getEnv("DB_PORT", "3306")
		dbName := getEnv("DB_NAME", "governancedb")

		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbUser, dbPassword, dbHost, dbPort, dbName)

		log.Println("Using MySQL database")
		DB, err = gorm.Open(mysql.Open(dsn), gormConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("failed to migrate models: %v", err)
	}

	log.Println("Database connection and migration successful")
	return nil
}

// Migrate creates or updates the governance schema. Column backfills for
// schemas predating AutoMigrate coverage run afterwards.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Dao{},
		&models.AdminBadge{},
		&models.Proposal{},
		&models.ProposalOption{},
		&models.ProposalVote{},
		&models.ConsumedToken{},
		&models.ProposalResult{},
		&models.GovernanceToken{},
		&models.TokenInstance{},
		&models.PlatformConfig{},
	)
	if err != nil {
		return err
	}
	return migrations.AddSpecificationToProposal(db)
}

// CloseDB closes the underlying connection pool.
func CloseDB() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("Failed to get underlying sql.DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
		return
	}
	log.Println("Database connection closed")
}

// getEnv reads an environment variable with a fallback default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
