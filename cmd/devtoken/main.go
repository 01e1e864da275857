package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"shoecare/internal/auth"
	"shoecare/internal/config"
	"shoecare/internal/database"
	"shoecare/internal/service"

	"github.com/rs/zerolog"
)

// devtoken creates the user if needed and prints a bearer token for it.
// Login flows live outside this service; the token stands in for them locally.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	var (
		configPath = flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
		email      = flag.String("email", "", "user email")
		name       = flag.String("name", "", "display name for a new user")
	)
	flag.Parse()

	if *email == "" {
		return errors.New("-email is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IsProduction() {
		return errors.New("dev tokens are not issued in production")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := service.NewUserService(db, &logger).EnsureUser(ctx, *email, *name)
	if err != nil {
		return err
	}

	tokens := auth.NewTokens(cfg.API.Auth.Secret, cfg.API.Auth.Issuer, time.Duration(cfg.API.Auth.TokenTTL)*time.Second)
	token, err := tokens.Issue(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
