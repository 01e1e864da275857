package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"shoecare/internal/database"
	"shoecare/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	dbPath := flag.String("db", "./data/shoecare.db", "path to sqlite db")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-db path] <email>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	email := flag.Arg(0)
	if email == "" {
		flag.Usage()
		return errors.New("please provide an email address")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := service.NewUserService(db, &logger)
	user, err := users.MakeAdminByEmail(ctx, email)
	if errors.Is(err, service.ErrUserNotFound) {
		return fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return err
	}

	fmt.Printf("User %s is now an admin\n", user.Email)
	return nil
}
