package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/planhub/accounts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// creates (or reuses) a test account and prints a JWT for manual API testing
func main() {
	// load environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	dbConnString := os.Getenv("DATABASE_URL")
	if dbConnString == "" {
		log.Fatal("DATABASE_URL not set")
	}

	dbPool, err := pgxpool.New(context.Background(), dbConnString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	ctx := context.Background()
	repo := accounts.NewRepository(dbPool)

	account, err := repo.FindOrCreateByProvider(ctx, "test", "test-account-123", "test@planhub.dev", "Test Account", "")
	if err != nil {
		log.Fatalf("Failed to create test account: %v", err)
	}

	fmt.Printf("✅ Test account: %s (ID: %s, tier: %s)\n", account.Email, account.ID, account.Tier)

	token, err := auth.GenerateJWT(account.ID, account.Email, false)
	if err != nil {
		log.Fatalf("Failed to generate JWT: %v", err)
	}

	fmt.Printf("\n🔑 Test JWT Token:\n%s\n\n", token)
	fmt.Printf("Export this token for testing:\nexport TEST_TOKEN=\"%s\"\n", token)
}
