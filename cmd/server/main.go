package main

import (
	"os"

	"berean/backend/internal/app"
)

// @title        Berean API
// @version      1.0
// @description  Streaming persona chat and comparison backend.
// @BasePath     /api
func main() {
	os.Exit(app.Run())
}
