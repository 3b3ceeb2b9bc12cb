package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"quartier-watch/internal/config"
	"quartier-watch/internal/database"
	"quartier-watch/internal/engine"
	"quartier-watch/internal/handlers"
	"quartier-watch/internal/middleware"
	"quartier-watch/internal/notify"
	"quartier-watch/internal/quota"
	"quartier-watch/internal/settings"
	"quartier-watch/internal/utils"
	"quartier-watch/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongodb, err := database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongodb.Close(ctx); err != nil {
			log.Printf("Failed to close MongoDB connection: %v", err)
		}
	}()

	metrics := utils.NewMetricsCollector()

	// Policy gate seeded from the settings singleton, kept fresh from
	// the settings feed so admin changes reach running checks.
	gate := settings.NewGate(context.Background(), mongodb)
	feedCtx, stopFeeds := context.WithCancel(context.Background())
	defer stopFeeds()
	settingsFeed, cancelSettingsFeed := mongodb.WatchSettings(feedCtx)
	defer cancelSettingsFeed()
	go func() {
		for range settingsFeed {
			gate.Refresh(feedCtx)
		}
	}()

	limiter := quota.NewLimiter(mongodb, gate)

	// Actor system and the domain engine.
	system := actor.NewActorSystem()
	quartierEngine := engine.NewEngine(system, mongodb, limiter, metrics)

	// Websocket hub delivers notifications; the manager owns one
	// router per connected user and is torn down on last disconnect.
	hub := websocket.NewHub()
	notifier := notify.NewManager(mongodb, hub, gate)
	hub.OnLastDisconnect = notifier.Disconnect
	go hub.Run()
	defer notifier.Shutdown()

	server := handlers.NewServer(system, quartierEngine, mongodb, gate, hub, notifier, metrics)

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	handler := middleware.CORSMiddleware(corsConfig)(middleware.AuthMiddleware(server.Routes()))

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
