package cmd

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"tasktrack/internal/auth"
	"tasktrack/internal/config"
	"tasktrack/internal/db"
	"tasktrack/internal/model"
	"tasktrack/internal/repository"
	"tasktrack/internal/service"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo user and tasks for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			log.Fatalf("database init: %v", err)
		}
		if err := db.Migrate(gormDB); err != nil {
			log.Fatalf("auto-migrate: %v", err)
		}

		ctx := context.Background()
		userRepo := repository.NewUserRepository(gormDB)
		taskRepo := repository.NewTaskRepository(gormDB)
		authService := service.NewAuthService(userRepo, auth.NewJWTService(cfg.JWTSecret))
		taskService := service.NewTaskService(taskRepo, nil)

		// Idempotent on email: rerunning against a seeded database is a no-op.
		if _, err := userRepo.FindByEmail(ctx, demoEmail); err == nil {
			log.Printf("demo user %s already exists, nothing to do", demoEmail)
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user, _, err := authService.Register(ctx, demoUsername, demoEmail, demoPassword)
		if err != nil {
			return err
		}
		log.Printf("created demo user %s (%s)", user.Username, user.Email)

		tomorrow := time.Now().Add(24 * time.Hour)
		lastWeek := time.Now().Add(-7 * 24 * time.Hour)
		seedTasks := []service.CreateTaskInput{
			{Title: "Write project report", Priority: model.PriorityHigh, Category: "work", DueDate: &tomorrow},
			{Title: "Buy groceries", Description: "Milk, eggs, bread", Priority: model.PriorityMedium, Category: "errands"},
			{Title: "Renew library books", Priority: model.PriorityLow, DueDate: &lastWeek},
			{Title: "Plan weekend trip", Priority: model.PriorityLow, Category: "personal"},
			{Title: "Pay electricity bill", Priority: model.PriorityHigh, Category: "finance"},
		}

		for i, input := range seedTasks {
			task, err := taskService.Create(ctx, user.ID, input)
			if err != nil {
				return err
			}
			// mark a couple of them done so every state shows up in the UI
			if i%2 == 1 {
				completed := true
				if _, err := taskService.Update(ctx, user.ID, task.ID.String(), service.UpdateTaskInput{Completed: &completed}); err != nil {
					return err
				}
			}
		}
		log.Printf("created %d demo tasks", len(seedTasks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
