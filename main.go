package main

import (
	"os"

	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/core/server"
)

// @title Venue Booking API
// @version 1.0
// @description Group venue reservation and review backend.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
		os.Exit(1)
	}
}
