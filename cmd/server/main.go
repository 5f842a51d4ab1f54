/*
main.go - Application entry point

PURPOSE:

	Initializes and starts the contract engine server. Handles
	configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
 1. Load optional .env file
 2. Parse command-line flags (env vars as defaults)
 3. Initialize SQLite store
 4. Seed default settings if none saved yet
 5. Configure HTTP router
 6. Start server with graceful shutdown

CONFIGURATION:

	-port    HTTP server port (default: 8080, env PORT)
	-db      SQLite database path (default: contracts.db, env DATABASE_PATH)
	         Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:

	On SIGINT/SIGTERM:
	1. Stop accepting new connections
	2. Wait for active requests to complete (30s timeout)
	3. Close database connection
	4. Exit

EXAMPLES:

	# Run with file database
	./server -db="./data/contracts.db"

	# Run with in-memory database
	./server -db=":memory:"

	# Run on different port
	./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/provisio/contract-engine/api"
	"github.com/provisio/contract-engine/factory"
	"github.com/provisio/contract-engine/store/sqlite"
)

func main() {
	// .env is optional; flags still win over environment
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "contracts.db"), "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Analytics fail hard without a settings document, so seed the
	// defaults on first start.
	if err := seedSettings(context.Background(), store); err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}

	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func seedSettings(ctx context.Context, store *sqlite.Store) error {
	_, err := store.GetSettings(ctx)
	if errors.Is(err, sqlite.ErrSettingsNotFound) {
		log.Println("No settings found, saving defaults")
		return store.SaveSettings(ctx, factory.SettingsFromJSON(factory.SettingsJSON{}))
	}
	return err
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
