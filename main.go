package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/events"
	router "studio/internal/http"
	"studio/internal/http/handlers"
	"studio/internal/repositories"
	"studio/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if env.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer intconfig.CloseDB()

	if env.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := intdb.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("schema migration failed: %v", err)
		}
	}

	cache := intconfig.NewRedisClient(env)
	if cache != nil {
		defer cache.Close()
	}

	publisher := events.New(env.RabbitMQURL)
	if c, ok := publisher.(io.Closer); ok {
		defer c.Close()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	settings := services.NewSettingsService(repositories.SettingsRepository{DB: db}, cache)
	_, source := settings.Refresh(ctx)
	log.Printf("[CONFIG] action=load_prices source=%s", source)
	go settings.Watch(ctx, env.SettingsRefresh)

	handlers.Configure(handlers.Deps{
		DB:        db,
		Settings:  settings,
		Events:    publisher,
		JWTSecret: []byte(env.JWTSecret),
		JWTTTL:    env.JWTTTL,
		Calendar: services.CalendarService{
			OAuth:    services.NewOAuthConfig(env.GoogleClientID, env.GoogleClientSecret),
			Location: env.Location(),
		},
		Location: env.Location(),
	})

	r := router.NewRouter(env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}

	log.Println("server stopped.")
}
