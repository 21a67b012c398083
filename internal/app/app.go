package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/assess"
	"claim-intake-go/internal/config"
	"claim-intake-go/internal/db"
	"claim-intake-go/internal/directory"
	"claim-intake-go/internal/fulfillment"
	"claim-intake-go/internal/handlers"
	"claim-intake-go/internal/intake"
	"claim-intake-go/internal/mail"
	"claim-intake-go/internal/metrics"
	"claim-intake-go/internal/queue"
	"claim-intake-go/internal/repository"
	"claim-intake-go/internal/server"
	"claim-intake-go/internal/storage"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Claim Intake Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.NewMetrics()
	repo := repository.New(dbConn)
	validator := directory.NewDBValidator(dbConn)

	inbox, err := mail.NewIMAPInbox(&cfg.Mail, cfg.Intake.AttachmentsDir)
	if err != nil {
		return fmt.Errorf("failed to create IMAP inbox: %w", err)
	}

	sender, err := mail.NewGmailSender(&cfg.Mail)
	if err != nil {
		return fmt.Errorf("failed to create mail sender: %w", err)
	}

	uploader, err := storage.NewS3Uploader(context.Background(), &cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create archival uploader: %w", err)
	}

	assessor := assess.NewOpenAIAssessor(&cfg.Assessor)
	processor := fulfillment.NewProcessor(repo, assessor, uploader, sender, m)

	q := queue.New()
	svc := intake.New(&cfg.Intake, cfg.Mail.Mailbox, inbox, q, repo, validator, processor, m)

	h := handlers.NewHandlers(dbConn, repo, validator, svc, m)
	router := server.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := svc.Start(); err != nil {
		return fmt.Errorf("failed to start intake service: %w", err)
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Stop(); err != nil {
		logrus.Errorf("Failed to stop intake service: %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if err := inbox.Close(); err != nil {
		logrus.Errorf("Failed to close inbox: %v", err)
	}
	if err := sender.Close(); err != nil {
		logrus.Errorf("Failed to close sender: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
