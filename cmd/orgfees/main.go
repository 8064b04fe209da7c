package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"orgfees/internal/amqp"
	"orgfees/internal/auth"
	"orgfees/internal/cli"
	apphttp "orgfees/internal/http"
	"orgfees/internal/log"
	"orgfees/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.NewLogger(cfg, log.ComponentApp, nil)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	st, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer st.Close()

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(st, issuer)

	if cfg.AdminEmail != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Error("Failed to bootstrap admin user", "error", err)
			os.Exit(1)
		}
		if created {
			logger.Info("Admin user created", "email", cfg.AdminEmail)
		}
	}

	// Events are optional; the API keeps working without a broker.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DefaultPageSize:    cfg.DefaultPageSize,
		MaxPageSize:        cfg.MaxPageSize,
		CookieSecure:       cfg.CookieSecure,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	}, apphttp.Dependencies{
		Transactions: services.NewTransactionService(st, publisher, cfg.Location()),
		Directory:    services.NewDirectoryService(st),
		Auth:         authService,
		Issuer:       issuer,
		Store:        st,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting orgfees server", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
