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

	"github.com/SHolweger/payment-service-main/internal/api"
	"github.com/SHolweger/payment-service-main/internal/api/handler"
	"github.com/SHolweger/payment-service-main/internal/api/router"
	"github.com/SHolweger/payment-service-main/internal/appcontext"
	"github.com/SHolweger/payment-service-main/internal/config"
	event_handler "github.com/SHolweger/payment-service-main/internal/handler/event"
	"github.com/rs/zerolog"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cf, err := config.Load(".")
	if err != nil {
		log.Fatal(err)
		return
	}

	app, err := appcontext.NewApplicationContext(cf, logger)
	if err != nil {
		log.Fatal(err)
		return
	}

	// 初始化 handler
	paymentEventHandler := event_handler.NewPaymentEventHandler(
		app.OrderService,
		app.InvoiceService,
		app.FulfillmentService,
		app.PaymentClient,
		app.SagaProducer,
		logger,
	)
	dispatcher := event_handler.NewPaymentEventDispatcher(paymentEventHandler, app.EventCache, logger)

	paymentHandler := handler.NewPaymentHandler(app.Verifier, dispatcher, app.CheckoutService, logger)
	invoiceHandler := handler.NewInvoiceHandler(app.OrderService, app.InvoiceService, logger)

	server := api.NewServer(paymentHandler, invoiceHandler)

	// 設置路由
	r := router.SetupRouter(server, &logger)

	// 設定服務器參數
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler: r,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutDonwCompleted := make(chan struct{}, 1)
	// 監聽退出訊號
	go func() {
		<-sigChan
		log.Println("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Application shutdown error: %v", err)
		}

		shutDonwCompleted <- struct{}{}
	}()

	// 啟動服務
	log.Printf("Server starting on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
	<-shutDonwCompleted
	log.Printf("closed completed")
}
