package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"github.com/neurallempire/neurallempire-api/internal/storage/postgres"
	"github.com/neurallempire/neurallempire-api/internal/util"
	"go.uber.org/zap"
)

func main() {
	agentIDStr := flag.String("agent", "", "Agent UUID the key belongs to")
	orgIDStr := flag.String("org", "", "Organization UUID the key belongs to")
	name := flag.String("name", "Operator key", "Human-readable key name")
	rateLimit := flag.Int("rate-limit", 60, "Requests per minute")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	agentID, err := uuid.Parse(*agentIDStr)
	if err != nil {
		log.Fatalf("Invalid -agent UUID: %v", err)
	}
	orgID, err := uuid.Parse(*orgIDStr)
	if err != nil {
		log.Fatalf("Invalid -org UUID: %v", err)
	}

	fullKey, prefix, keyHash, err := util.GenerateAPIKey()
	if err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}

	fmt.Printf("Generated API Key (SAVE THIS securely!):\n%s\n\n", fullKey)
	fmt.Printf("Prefix: %s\n", prefix)

	logger, _ := zap.NewDevelopment()
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	repo := postgres.NewAPIKeyRepository(pool, logger)

	newKeyRecord := &apikey.APIKey{
		AgentID:        agentID,
		OrganizationID: orgID,
		KeyHash:        keyHash,
		Prefix:         prefix,
		Name:           *name,
		Permissions:    []string{"*"},
		RateLimit:      *rateLimit,
		IsActive:       true,
	}

	keyID, err := repo.Create(context.Background(), newKeyRecord)
	if err != nil {
		log.Fatalf("Failed to save API key to database: %v", err)
	}

	fmt.Printf("\nAPI Key saved to database with ID: %s\n", keyID)
}
