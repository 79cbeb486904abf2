package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tienda-be/internal/api"
	"tienda-be/internal/config"
	"tienda-be/internal/customer"
	"tienda-be/internal/db"
	"tienda-be/internal/delivery"
	"tienda-be/internal/events"
	"tienda-be/internal/logger"
	"tienda-be/internal/middleware"
	"tienda-be/internal/order"
	"tienda-be/internal/payment"
	"tienda-be/internal/payment/webhook"
	"tienda-be/internal/product"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	customerRepo := customer.NewRepository(database)
	productRepo := product.NewRepository(database)
	deliveryRepo := delivery.NewRepository(database)
	orderRepo := order.NewRepository(database)
	paymentRepo := payment.NewRepository(database)

	gateway := payment.NewWompiGateway(
		cfg.WompiBaseURL, cfg.WompiPublicKey, cfg.WompiPrivateKey, cfg.GatewayTimeout,
	)

	var publisher payment.ApprovalPublisher
	if cfg.AMQPURL != "" {
		p, err := events.NewPublisher(cfg.AMQPURL)
		if err != nil {
			log.Printf("RabbitMQ unavailable, approval events disabled: %v", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	orderSvc := order.NewService(orderRepo, customerRepo, deliveryRepo, productRepo, paymentRepo)
	paymentSvc := payment.NewService(paymentRepo, orderRepo, customerRepo, deliveryRepo, gateway, publisher)
	reconciler := payment.NewReconciler(
		paymentRepo, gateway, publisher,
		payment.NewPollPolicy(cfg.PollMaxAttempts, cfg.PollDelay),
	)

	handler := api.NewHandler(orderSvc, paymentSvc, reconciler, productRepo)
	webhookHandler := webhook.NewHandler(reconciler, cfg.WompiEventsSecret)

	mux := handler.Routes()
	mux.HandleFunc("POST /webhook/wompi", webhookHandler.WebhookHandler)

	srv := &http.Server{
		Addr: ":" + cfg.AppPort,
		Handler: logger.RequestIDMiddleware(
			logger.LoggingMiddleware(
				middleware.RateLimitMiddleware(mux),
			),
		),
	}

	go func() {
		log.Printf("server running at http://localhost:%s/", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
