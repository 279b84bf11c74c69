package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"caredraft/api/internal/ai"
	"caredraft/api/internal/answers"
	"caredraft/api/internal/app"
	"caredraft/api/internal/archive"
	"caredraft/api/internal/companies"
	"caredraft/api/internal/config"
	"caredraft/api/internal/email"
	"caredraft/api/internal/export"
	"caredraft/api/internal/factcheck"
	"caredraft/api/internal/revisions"
	"caredraft/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
		log.Fatalf("failed to create repos dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	revisionLog := revisions.New(cfg.ReposDir)

	pgfts := answers.NewPgFTS(db)
	var answerBank *answers.Service
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient := answers.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		answerBank = answers.NewService(meiliClient, pgfts)
	} else {
		answerBank = answers.NewService(nil, pgfts)
	}
	answerBank.ReindexAllFromPG(ctx)

	var provider ai.Provider
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		aiCfg := ai.DefaultConfig()
		aiCfg.APIKey = cfg.OpenAIAPIKey
		aiCfg.Model = cfg.OpenAIModel
		aiCfg.BaseURL = cfg.OpenAIBaseURL
		provider, err = ai.NewOpenAIProvider(aiCfg)
		if err != nil {
			log.Fatalf("AI provider setup failed: %v", err)
		}
	} else {
		log.Printf("OPENAI_API_KEY not set, context actions and fact checking disabled")
	}

	var checker app.FactChecker
	if provider != nil {
		var cache *factcheck.Cache
		if strings.TrimSpace(cfg.RedisURL) != "" {
			cache, err = factcheck.NewCache(cfg.RedisURL)
			if err != nil {
				log.Fatalf("redis connection failed: %v", err)
			}
			defer cache.Close()
		}
		checker = factcheck.NewService(factcheck.NewChecker(provider, cache))
	}

	var archiver export.Archiver
	var artifacts app.ArtifactStore
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		archiveSvc, err := archive.New(ctx, archive.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("object storage setup failed: %v", err)
		}
		archiver = archiveSvc
		artifacts = archiveSvc
	} else {
		log.Printf("MINIO_ENDPOINT not set, export archiving disabled")
	}

	var mailer export.Mailer
	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if emailService.IsConfigured() {
		mailer = emailService
	} else {
		log.Printf("SMTP not configured, export email delivery disabled")
	}

	exporter := export.NewService(archiver, mailer)

	var directory app.CompanyDirectory
	if strings.TrimSpace(cfg.CompaniesAPIKey) != "" {
		directory = companies.NewClient(cfg.CompaniesAPIURL, cfg.CompaniesAPIKey)
	} else {
		log.Printf("COMPANIES_API_KEY not set, company lookups disabled")
	}

	service := app.NewService(db, dataStore, exporter, revisionLog, answerBank, checker, directory, provider, artifacts)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("CareDraft API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
