package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpctx "github.com/dtroode/authgate-server/internal/api/http/context"
	"github.com/dtroode/authgate-server/internal/api/http/handler"
	"github.com/dtroode/authgate-server/internal/api/http/middleware"
	"github.com/dtroode/authgate-server/internal/api/http/router"
	"github.com/dtroode/authgate-server/internal/config"
	"github.com/dtroode/authgate-server/internal/crypto"
	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/metrics"
	"github.com/dtroode/authgate-server/internal/model"
	"github.com/dtroode/authgate-server/internal/repository/postgres"
	"github.com/dtroode/authgate-server/internal/server"
	"github.com/dtroode/authgate-server/internal/service"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	aesKey, err := cfg.Encryption.AESKey()
	if err != nil {
		logger.Fatal("failed to load encryption key", "error", err)
	}
	encryptor, err := crypto.NewEncryptor(aesKey)
	if err != nil {
		logger.Fatal("failed to initialize encryptor", "error", err)
	}

	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	challengeRepo := postgres.NewChallengeRepository(db)
	passkeyRepo := postgres.NewPasskeyCredentialRepository(db)
	totpRepo := postgres.NewTOTPCredentialRepository(db)

	sessionService := service.NewSession(sessionRepo, userRepo, logger)
	challengeService := service.NewChallenge(challengeRepo, logger)
	authService := service.NewAuth(userRepo, sessionService, encryptor, service.NewHIBPClient(), logger)
	totpService := service.NewTOTP(totpRepo, userRepo, sessionService, encryptor, cfg.RelyingParty.Name, logger)
	passkeyService := service.NewPasskey(passkeyRepo, userRepo, challengeService, sessionService, service.RelyingParty{
		Name:   cfg.RelyingParty.Name,
		ID:     cfg.RelyingParty.ID,
		Origin: cfg.RelyingParty.Origin,
	}, logger)

	metrics.MustRegister()

	ctxMgr := httpctx.NewManager()
	cookies := handler.CookieConfig{Secure: cfg.HTTP.SecureCookies}

	handlers := router.Handlers{
		Auth:    handler.NewAuth(authService, ctxMgr, cookies, logger),
		Session: handler.NewSession(sessionService, ctxMgr, cookies, logger),
		TOTP:    handler.NewTOTP(totpService, ctxMgr, logger),
		Passkey: handler.NewPasskey(passkeyService, ctxMgr, logger),
	}
	authenticate := middleware.NewAuthenticate(sessionService, ctxMgr, logger)

	mux := router.New(handlers, authenticate, logger)
	httpServer := server.NewHTTPServer(mux, fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
