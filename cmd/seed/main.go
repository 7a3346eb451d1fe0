package main

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"

	"userdir/internal/auth"
	"userdir/internal/config"
	"userdir/internal/db"
	"userdir/internal/repository"
	"userdir/internal/service"
)

func main() {
	log.Info("Starting seed script...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Database migrations completed")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := service.EnsureAdmin(ctx, repository.NewUserRepository(gormDB), auth.NewPasswordHasher(), service.AdminSeed{
		Name:     cfg.SeedAdminName,
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
	})
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	if created {
		log.Infof("Admin user %s created", cfg.SeedAdminEmail)
	} else {
		log.Infof("Admin user %s already exists", cfg.SeedAdminEmail)
	}
}
