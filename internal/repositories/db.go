// Package repositories provides the data access layer for the ledger core.
package repositories

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cashup/internal/config"
	"cashup/internal/models"
	"cashup/internal/repositories/cache"
)

// DB is the global database instance used across the application.
var DB *gorm.DB

// CacheService is the global redis-backed cache.
var CacheService *cache.CacheService

// InitDB initializes the database and cache connections, tunes the connection
// pool and migrates the schema.
func InitDB() error {
	dsn := "host=" + config.GetEnv("DB_HOST", "localhost") +
		" user=" + config.GetEnv("DB_USER", "postgres") +
		" password=" + config.GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + config.GetEnv("DB_NAME", "cashup") +
		" port=" + config.GetEnv("DB_PORT", "5432") +
		" sslmode=" + config.GetEnv("DB_SSLMODE", "disable")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	DB = db

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(config.GetIntEnv("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetMaxOpenConns(config.GetIntEnv("DB_MAX_OPEN_CONNS", 100))
	sqlDB.SetConnMaxLifetime(config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour))
	sqlDB.SetConnMaxIdleTime(config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute))

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	redisCfg := &cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	}
	CacheService = cache.NewCacheService(cache.NewRedisClient(redisCfg), 30*time.Minute)

	return db.AutoMigrate(
		&models.Buyer{},
		&models.CashupDeposit{},
		&models.CashupOwingDeposit{},
		&models.WithdrawalRequest{},
		&models.BuyerTransaction{},
		&models.CashupProfitHistory{},
		&models.CashupOwingProfitHistory{},
		&models.TransferHistory{},
		&models.CashupTransferHistory{},
		&models.Category{},
		&models.Item{},
		&models.Purchase{},
	)
}

// CloseDB closes the database and cache connections.
func CloseDB() {
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("failed to close database connection: %v", err)
			}
		}
	}
	if CacheService != nil {
		if err := CacheService.Close(); err != nil {
			log.Printf("failed to close redis connection: %v", err)
		}
	}
}
