package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campusboard.org/internal/audit"
	"campusboard.org/internal/auth"
	"campusboard.org/internal/config"
	"campusboard.org/internal/httpapi"
	"campusboard.org/internal/mail"
	"campusboard.org/internal/media"
	"campusboard.org/internal/notice"
	"campusboard.org/internal/obs"
	"campusboard.org/internal/store/memory"
	"campusboard.org/internal/store/pg"
	"campusboard.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg := config.Load()

	logger, err := obs.NewLogger()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		identities auth.IdentityStore
		notices    notice.Store
		db         *sql.DB
	)
	if cfg.DatabaseDSN != "" {
		pgStore, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("open database", zap.Error(err))
		}
		defer func() { _ = pgStore.Close() }()
		identities = pgStore
		notices = pgStore.Notices()
		db = pgStore.DB()
	} else {
		logger.Warn("no database configured, using in-memory stores")
		identities = memory.NewIdentityStore()
		notices = memory.NewNoticeStore()
	}

	issuer, err := auth.NewTokenIssuer(cfg.AuthSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}
	authSvc, err := auth.NewService(identities, issuer)
	if err != nil {
		logger.Fatal("auth service", zap.Error(err))
	}

	// Media provider, optional.
	var mediaStore media.Store = media.Disabled{}
	if cfg.MediaBaseURL != "" {
		client, err := media.NewClient(cfg.MediaBaseURL, cfg.MediaAPIKey)
		if err != nil {
			logger.Fatal("media client", zap.Error(err))
		}
		mediaStore = client
	}

	// Mail fan-out, optional.
	noticeOpts := []notice.ServiceOption{}
	if cfg.SMTPUser != "" {
		sender, err := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			logger.Fatal("smtp sender", zap.Error(err))
		}
		noticeOpts = append(noticeOpts, notice.WithNotifier(mail.NewNotifier(sender, logger, time.Minute)))
	} else {
		logger.Warn("no SMTP user configured, notification mail disabled")
	}

	events := stream.New()
	noticeOpts = append(noticeOpts, notice.WithEvents(events))

	noticeSvc, err := notice.NewService(notices, identities, mediaStore, logger, noticeOpts...)
	if err != nil {
		logger.Fatal("notice service", zap.Error(err))
	}

	api, err := httpapi.New(httpapi.Config{
		Auth:           authSvc,
		Notices:        noticeSvc,
		Media:          mediaStore,
		Events:         events,
		Audit:          audit.New(logger),
		Logger:         logger,
		Ready:          httpapi.ReadyProbe{DB: db},
		Version:        version,
		CORSOrigin:     cfg.CORSOrigin,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxUploadBytes: cfg.MaxBodyBytes,
		RateBurst:      cfg.RateBurst,
		RatePerSec:     cfg.RatePerSec,
	})
	if err != nil {
		logger.Fatal("http api", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting campusboard-api",
		zap.String("version", version),
		zap.String("addr", srv.Addr),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info("stopped")
}
