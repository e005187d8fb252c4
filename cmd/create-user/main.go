package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/database"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/repository"
	"github.com/shams-academy/assessment/internal/service"
	"golang.org/x/term"
)

func main() {
	admin := flag.Bool("admin", false, "grant test authoring rights")
	reset := flag.Bool("reset", false, "reset the password of an existing user instead")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg, userRepo)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	if *reset {
		fmt.Println("=== Reset User Password ===")
	} else {
		fmt.Println("=== Create New User ===")
	}

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// Name
	var name string
	if !*reset {
		fmt.Print("Enter Name: ")
		name, _ = reader.ReadString('\n')
		name = strings.TrimSpace(name)
		if name == "" {
			fmt.Println("Error: Name is required")
			return
		}
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────

	if *reset {
		user, err := userRepo.GetByEmail(ctx, email)
		if errors.Is(err, pgx.ErrNoRows) {
			fmt.Printf("Error: no user with email %s\n", email)
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to look up user")
		}
		hash, err := authService.HashPassword(password)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}
		if err := userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
			log.Fatal().Err(err).Msg("Failed to update password")
		}
		fmt.Printf("\nSuccess! Password reset for '%s' (%s)\n", user.Name, user.Email)
		return
	}

	user, err := authService.Register(ctx, name, email, password, *admin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	role := "learner"
	if user.IsAdmin {
		role = "admin"
	}
	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %d\n", role, user.Name, user.Email, user.ID)
}
