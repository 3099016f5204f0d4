package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/quiznexusai/quiznexus-backend/internal/config"
	"github.com/quiznexusai/quiznexus-backend/internal/database"
	"github.com/quiznexusai/quiznexus-backend/internal/logger"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/quiznexusai/quiznexus-backend/internal/repository"
	"github.com/quiznexusai/quiznexus-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin User ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Surname: ")
	surname, _ := reader.ReadString('\n')
	surname = strings.TrimSpace(surname)

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		fmt.Printf("Error hashing password: %v\n", err)
		return
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Surname:      surname,
		Role:         model.RoleAdmin,
	}

	if err := userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateUsername {
			fmt.Println("Error: Username is already taken")
			return
		}
		fmt.Printf("Error creating admin: %v\n", err)
		return
	}

	fmt.Printf("Admin user %q created with ID %d\n", user.Username, user.ID)
}
