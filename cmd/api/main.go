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

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"licensing-webhooks/internal/client"
	"licensing-webhooks/internal/config"
	"licensing-webhooks/internal/repository"
	"licensing-webhooks/internal/server"
	"licensing-webhooks/internal/service"
	"licensing-webhooks/pkg/logging"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogging()

	db := client.InitMysqlClient(cfg.DatabaseURL)
	cryptlexClient := client.NewCryptlexClient(&cfg.Cryptlex)

	webhookEventRepo := repository.NewWebhookEventRepository(db)

	fastSpringService := service.NewFastSpringService(cryptlexClient, webhookEventRepo)
	paddleService := service.NewPaddleService(cryptlexClient, webhookEventRepo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(cfg, fastSpringService, paddleService)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
