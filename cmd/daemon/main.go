package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"

	"lexisync/internal/auth"
	"lexisync/internal/config"
	"lexisync/internal/domain"
	"lexisync/internal/handler"
	"lexisync/internal/livesync"
	"lexisync/internal/middleware"
	"lexisync/internal/remote"
	"lexisync/internal/repository"
	"lexisync/internal/service"
	"lexisync/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to local store: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}
	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created database: %s", cfg.Database.Name)
	}

	dictRepo := repository.NewDictionaryRepository(client, cfg.Database.Name)
	profileRepo := repository.NewProfileRepository(client, cfg.Database.Name)

	gateway := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxClients,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	session, err := service.NewSession(dictRepo, profileRepo, gateway, wsManager)
	if err != nil {
		log.Fatalf("Failed to initialize session: %v", err)
	}

	authController := auth.NewController(gateway, cfg.Remote.PollInterval,
		func(phase domain.AuthPhase, cred *domain.Credential) {
			var username string
			if cred != nil {
				username = cred.Username
				gateway.SetCredential(*cred)

				ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
				defer cancel()
				if _, err := session.RefreshRemote(ctx); err != nil {
					log.Printf("Failed to refresh remote state after login: %v", err)
				}
			}
			wsManager.AuthCompleted(phase, username)
		})

	channel := livesync.NewChannel(
		cfg.Remote.PushURL,
		cfg.Livesync.MaxRetries,
		cfg.Livesync.BaseBackoff,
		cfg.Livesync.MaxBackoff,
		session.ApplyRemoteHash,
	)
	channel.Start()
	defer channel.Stop()

	syncHandler := handler.NewSyncHandler(session)
	dictHandler := handler.NewDictionaryHandler(session)
	lineageHandler := handler.NewLineageHandler(session)
	authHandler := handler.NewAuthHandler(authController)
	wsHandler := handler.NewWebSocketHandler(wsManager)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/state", syncHandler.GetState).Methods("GET", "OPTIONS")
	api.HandleFunc("/changes", syncHandler.GetChanges).Methods("GET", "OPTIONS")

	api.HandleFunc("/sync/refresh", syncHandler.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/sync/upload", syncHandler.Upload).Methods("POST", "OPTIONS")
	api.HandleFunc("/sync/download", syncHandler.Download).Methods("POST", "OPTIONS")

	api.HandleFunc("/merge", syncHandler.GetMerge).Methods("GET", "OPTIONS")
	api.HandleFunc("/merge/start", syncHandler.StartMerge).Methods("POST", "OPTIONS")
	api.HandleFunc("/merge/resolve", syncHandler.Resolve).Methods("POST", "OPTIONS")

	api.HandleFunc("/lineage/fork", lineageHandler.Fork).Methods("POST", "OPTIONS")
	api.HandleFunc("/lineage/branch", lineageHandler.PromoteBranch).Methods("POST", "OPTIONS")
	api.HandleFunc("/lineage/options", lineageHandler.ContributorOptions).Methods("GET", "OPTIONS")

	api.HandleFunc("/dictionary", dictHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/dictionary/entries/{key}", dictHandler.UpsertEntry).Methods("PUT", "OPTIONS")
	api.HandleFunc("/dictionary/entries/{key}", dictHandler.DeleteEntry).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/auth/login", authHandler.BeginLogin).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/cancel", authHandler.CancelLogin).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth", authHandler.Status).Methods("GET", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)
	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting lexisync daemon on %s (env: %s)", addr, cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Daemon failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down daemon...")

	authController.Cancel()
	channel.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Daemon forced to shutdown: %v", err)
	}

	log.Println("Daemon stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"lexisync"}`))
}
