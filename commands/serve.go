package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewcms/auth"
	"reviewcms/config"
	"reviewcms/database"
	"reviewcms/filestore"
	"reviewcms/handlers"
	"reviewcms/notify"
	"reviewcms/routes"
	"reviewcms/session"
	"reviewcms/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	log.Println("🚀 Starting Review CMS server...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if os.Getenv("GIN_MODE") == gin.ReleaseMode || !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
		log.Println("⚙️ Running in RELEASE mode")
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("⚙️ Running in DEBUG mode")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer db.Disconnect()

	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}
	repos := handlers.MongoRepos(db)

	store, closeStore, err := sessionStore(cfg, db)
	if err != nil {
		return err
	}
	defer closeStore()

	backend, err := filestore.NewBackend(ctx, cfg.Upload)
	if err != nil {
		return fmt.Errorf("upload backend: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)
	events := notify.Multi{hub}
	if cfg.VAPID.Enabled() {
		events = append(events, notify.NewPush(repos.PushSubs, cfg.VAPID, cfg.PublicURL))
		log.Println("📣 Web push enabled")
	}

	h := handlers.New(handlers.Deps{
		Config:    cfg,
		Repos:     repos,
		Tokens:    auth.NewTokens(cfg.JWTSecret),
		Verifiers: verifiers(cfg, repos),
		Sessions:  session.NewManager(store, repos.Users, cfg.SessionSecret, cfg.SessionTTL, !cfg.IsDevelopment()),
		Uploader:  filestore.NewUploader(backend, cfg.Upload.MaxBytes, cfg.Upload.AllowedTypes),
		Events:    events,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      routes.SetupRouter(h, hub),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌐 Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown:", err)
	}
	log.Println("👋 Server stopped gracefully")
	return nil
}

// sessionStore prefers Redis when REDIS_URL is set and falls back to MongoDB.
func sessionStore(cfg *config.Config, db *database.DB) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		log.Println("🍪 Sessions stored in MongoDB")
		return session.NewMongoStore(db.Collection(database.ColSessions)), func() {}, nil
	}
	store, err := session.NewRedisStoreFromURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Println("🍪 Sessions stored in Redis")
	return store, func() { _ = store.Close() }, nil
}

func verifiers(cfg *config.Config, repos handlers.Repos) *auth.Registry {
	reg := auth.NewRegistry()
	reg.Register(auth.StrategyLocal, auth.NewLocalVerifier(repos.Users))
	if cfg.Google.Enabled() {
		reg.Register(auth.StrategyGoogle, auth.NewGoogleVerifier(cfg.Google, cfg.PublicURL, repos.Users))
		log.Println("🔑 Google login enabled")
	}
	if cfg.Facebook.Enabled() {
		reg.Register(auth.StrategyFacebook, auth.NewFacebookVerifier(cfg.Facebook, cfg.PublicURL, repos.Users))
		log.Println("🔑 Facebook login enabled")
	}
	return reg
}
