package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"userdir/docs"
	"userdir/internal/auth"
	"userdir/internal/cache"
	"userdir/internal/config"
	"userdir/internal/db"
	"userdir/internal/handler"
	"userdir/internal/oauth"
	"userdir/internal/repository"
	"userdir/internal/router"
	"userdir/internal/service"
)

// @title User Directory API
// @version 1.0
// @description Authentication and role-gated user management.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token. Browsers send the accessToken cookie instead.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	log.SetLevel(logLevel(cfg.LogLevel))

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("%v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		log.Warnf("redis unavailable, logout revocation disabled: %v", err)
	}

	userRepo := repository.NewUserRepository(gormDB)

	hasher := auth.NewPasswordHasher()
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	cookies := auth.CookieOptions{
		Secure:   cfg.IsProduction(),
		SameSite: cfg.SameSite(),
		Domain:   cfg.CookieDomain,
		MaxAge:   cfg.TokenTTL,
	}

	authService := service.NewAuthService(userRepo, hasher, jwtService, tokenStore, service.RegistrationPolicy{
		AllowAdminSignup: cfg.AllowAdminSignup,
	})
	userService := service.NewUserService(userRepo, hasher)
	oauthService := service.NewOAuthService(userRepo)
	guard := service.NewAuthGuard(userRepo, jwtService, tokenStore, authService, log.New("auth"))

	handlers := router.Handlers{
		Auth:  handler.NewAuthHandler(authService, cookies),
		Users: handler.NewUserHandler(userService),
	}
	if cfg.GoogleEnabled() {
		provider := oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
		})
		handlers.OAuth = handler.NewOAuthHandler(provider, oauthService, authService, cookies, cfg.FrontendURL)
	} else {
		log.Info("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	router.Register(e, guard, handlers)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	log.Infof("Swagger documentation available at /swagger/index.html")

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
}

func logLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
