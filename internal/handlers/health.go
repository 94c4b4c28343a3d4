package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cashup/internal/repositories"
)

func HealthCheck(c *fiber.Ctx) error {
	dbStatus := "connected"
	if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unavailable"
	}

	redisStatus := "disabled"
	if repositories.CacheService != nil {
		redisStatus = "connected"
		if err := repositories.CacheService.Ping(c.Context()); err != nil {
			redisStatus = "unavailable"
		}
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"services": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
