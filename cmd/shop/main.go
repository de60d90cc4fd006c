// Package main запускает HTTP-сервер сервиса магазина.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pizzasmolina/shop-backend/internal/auth"
	"github.com/pizzasmolina/shop-backend/internal/config"
	"github.com/pizzasmolina/shop-backend/internal/handler"
	"github.com/pizzasmolina/shop-backend/internal/mailer"
	"github.com/pizzasmolina/shop-backend/internal/middleware"
	"github.com/pizzasmolina/shop-backend/internal/payments"
	"github.com/pizzasmolina/shop-backend/internal/repository"
	"github.com/pizzasmolina/shop-backend/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	tokens := auth.NewTokenService(cfg.JWTSecret)
	sender := mailer.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SenderEmail, logger)
	paymentsClient := payments.NewClient(cfg.PaymentAddress, cfg.PaymentAPIKey)

	svc := service.NewService(repo, tokens, sender, paymentsClient, cfg.FrontendURL, cfg.TempPasswordLength)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting shop server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
