package main

import (
	"context"
	"log"
	"os"
	"time"

	"docchat-be/internal/constant"
	"docchat-be/internal/entity"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds the initial admin account. Safe to run repeatedly.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("Error: SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		log.Fatalf("Error: Lookup failed: %v", err)
	}
	if existing != nil {
		log.Printf("Admin %s already exists, nothing to do", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Failed to hash password: %v", err)
	}
	hashStr := string(hash)

	admin := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: &hashStr,
		FullName:     "Administrator",
		Role:         entity.UserRoleAdmin,
		Status:       entity.UserStatusActive,
		Groups:       []string{constant.GroupDefault, constant.GroupPodAdmin},
		PrimaryGroup: constant.GroupDefault,
		CreatedAt:    time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		log.Fatalf("Error: Begin failed: %v", err)
	}
	if err := uow.UserRepository().Create(ctx, admin); err != nil {
		uow.Rollback()
		log.Fatalf("Error: Create failed: %v", err)
	}
	if err := uow.Commit(); err != nil {
		log.Fatalf("Error: Commit failed: %v", err)
	}

	log.Printf("Admin %s created", email)
}
