package cmd

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	_ "tasktrack/docs" // swagger docs

	"tasktrack/internal/auth"
	"tasktrack/internal/cache"
	"tasktrack/internal/config"
	"tasktrack/internal/db"
	"tasktrack/internal/handler"
	"tasktrack/internal/repository"
	"tasktrack/internal/router"
	"tasktrack/internal/service"
)

const shutdownTimeout = 20 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			log.Fatalf("database init: %v", err)
		}

		if err := db.Migrate(gormDB); err != nil {
			log.Fatalf("auto-migrate: %v", err)
		}

		cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

		// Repositories
		userRepo := repository.NewUserRepository(gormDB)
		taskRepo := repository.NewTaskRepository(gormDB)

		// Auth components
		jwtService := auth.NewJWTService(cfg.JWTSecret)

		// Services
		authService := service.NewAuthService(userRepo, jwtService)
		taskService := service.NewTaskService(taskRepo, cacheClient)

		// Handlers
		authHandler := handler.NewAuthHandler(authService)
		taskHandler := handler.NewTaskHandler(taskService)

		e := echo.New()
		e.HideBanner = true
		router.Register(e, cfg, jwtService, userRepo, authHandler, taskHandler)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			addr := ":" + cfg.ServerPort
			log.Printf("HTTP server listening on %s", addr)
			if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
				log.Fatalf("server start: %v", err)
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}

		log.Println("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
