package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/face-auth-api/internal/config"
	"github.com/face-auth-api/internal/infrastructure/dynamo"
	"github.com/face-auth-api/internal/infrastructure/extractor"
	jwtinfra "github.com/face-auth-api/internal/infrastructure/jwt"
	s3infra "github.com/face-auth-api/internal/infrastructure/s3"
	"github.com/face-auth-api/internal/infrastructure/smtp"
	transporthttp "github.com/face-auth-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Embedding extractor sidecar.
	extractorClient := extractor.NewClient(cfg)
	defer extractorClient.Close()

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 crop archive (optional).
	var s3Store *s3infra.Store
	if cfg.ArchiveCrops {
		s3Store = s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	deps := &transporthttp.Deps{
		FaceRepo:     dynamo.NewFaceRepo(dynamoClient, cfg.DynamoTables.Faces),
		RecoveryRepo: dynamo.NewRecoveryRepo(dynamoClient, cfg.DynamoTables.RecoveryRequests),
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		Extractor:    extractorClient,
		S3Store:      s3Store,
		Mailer:       mailer,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
