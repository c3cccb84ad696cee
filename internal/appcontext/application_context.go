package appcontext

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SHolweger/payment-service-main/internal/config"
	"github.com/SHolweger/payment-service-main/internal/infra/gateway"
	"github.com/SHolweger/payment-service-main/internal/infra/producer"
	"github.com/SHolweger/payment-service-main/internal/infra/repository/db"
	"github.com/SHolweger/payment-service-main/internal/infra/repository/redis_repo"
	"github.com/SHolweger/payment-service-main/internal/service"
	"github.com/SHolweger/payment-service-main/internal/webhook"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type ApplicationContext struct {
	Cf         *config.Config
	Logger     zerolog.Logger
	HttpClient *http.Client
	DbConn     *gorm.DB
	DbDao      *db.DbDao
	RedisConn  *redis.Client
	EventCache *redis_repo.EventCache

	PaymentClient   gateway.IPaymentClient
	InventoryClient gateway.IInventoryClient
	ShipmentClient  gateway.IShipmentClient
	CartClient      gateway.ICartClient
	SagaProducer    producer.ISagaProducer

	Verifier           *webhook.Verifier
	OrderService       service.IOrderService
	InvoiceService     service.IInvoiceService
	FulfillmentService service.IFulfillmentService
	CheckoutService    service.ICheckoutService
}

func NewApplicationContext(cf *config.Config, logger zerolog.Logger) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		Logger: logger,
	}
	if err := app.Init(); err != nil {
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	app.setUpHttpClient()
	if err := app.setUpdbConn(); err != nil {
		return err
	}
	if err := app.setUpdbDao(); err != nil {
		return err
	}
	app.setUpRedis()
	app.setUpGateways()
	app.setUpProducer()
	app.setUpVerifier()
	return app.setUpServices()
}

func (app *ApplicationContext) setUpHttpClient() {
	log.Printf("Start setup HTTP client")
	// 所有對外呼叫共用同一個 timeout，webhook 處理不能被下游拖死
	app.HttpClient = &http.Client{Timeout: app.Cf.OutboundTimeoutDuration()}
	log.Printf("Finish setup HTTP client")
}

func (app *ApplicationContext) setUpdbConn() error {
	log.Printf("Start setup database connection")
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas, app.Cf.DbSslMode)
	if err != nil {
		return err
	}
	app.DbConn = conn
	log.Printf("Finish setup database connection")
	return nil
}

func (app *ApplicationContext) setUpdbDao() error {
	log.Printf("Start setup database DAO")
	app.DbDao = db.NewDbDao(app.DbConn)
	if err := app.DbDao.InitMigrate(); err != nil {
		return err
	}
	log.Printf("Finish setup database DAO")
	return nil
}

func (app *ApplicationContext) setUpRedis() {
	log.Printf("Start setup redis")
	if app.Cf.RedisAddr != "" {
		app.RedisConn = redis.NewClient(&redis.Options{
			Addr:     app.Cf.RedisAddr,
			Password: app.Cf.RedisPassword,
		})
	}
	// RedisConn 為 nil 時 EventCache 每次都回未處理，冪等性退回 db guard
	app.EventCache = redis_repo.NewEventCache(app.RedisConn)
	log.Printf("Finish setup redis")
}

func (app *ApplicationContext) setUpGateways() {
	log.Printf("Start setup downstream gateways")
	app.PaymentClient = gateway.NewPaymentClient(app.HttpClient, app.Cf.PaymentBaseURL, app.Cf.PaymentAPIKey)
	app.InventoryClient = gateway.NewInventoryClient(app.HttpClient, app.Cf.InventoryBaseURL)
	app.ShipmentClient = gateway.NewShipmentClient(app.HttpClient, app.Cf.ShipmentBaseURL)
	app.CartClient = gateway.NewCartClient(app.HttpClient, app.Cf.CartBaseURL)
	log.Printf("Finish setup downstream gateways")
}

func (app *ApplicationContext) setUpProducer() {
	log.Printf("Start setup saga producer")
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 || app.Cf.KafkaSagaTopic == "" {
		// 沒設 kafka 就不上報，saga 本體照跑
		log.Printf("kafka not configured, saga outcome feed disabled")
		return
	}
	app.SagaProducer = producer.NewSagaProducer(brokers, app.Cf.KafkaSagaTopic)
	log.Printf("Finish setup saga producer")
}

func (app *ApplicationContext) setUpVerifier() {
	log.Printf("Start setup webhook verifier")
	app.Verifier = webhook.NewVerifier(app.Cf.WebhookSecret)
	log.Printf("Finish setup webhook verifier")
}

func (app *ApplicationContext) setUpServices() error {
	log.Printf("Start setup services")
	orderRepo := db.NewOrderRepo(app.DbDao)
	invoiceRepo := db.NewInvoiceRepo(app.DbDao)

	app.OrderService = service.NewOrderService(orderRepo)
	app.InvoiceService = service.NewInvoiceService(invoiceRepo, app.PaymentClient, app.Cf.CompanyName, app.Logger)
	app.FulfillmentService = service.NewFulfillmentService(
		app.OrderService,
		app.InventoryClient,
		app.ShipmentClient,
		app.CartClient,
		app.Logger,
	)

	rate, err := app.Cf.ExchangeRate()
	if err != nil {
		return err
	}
	app.CheckoutService = service.NewCheckoutService(app.OrderService, app.PaymentClient, rate, app.Cf.FrontendURL, app.Logger)
	log.Printf("Finish setup services")
	return nil
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	log.Printf("Start application shutdown")

	done := make(chan error)
	go func() {
		defer close(done)

		if app.SagaProducer != nil {
			log.Printf("Closing saga producer...")
			if err := app.SagaProducer.Close(); err != nil {
				//有錯誤不結束流程
				log.Printf("saga producer shutdown error: %v", err)
			}
		}

		if app.RedisConn != nil {
			log.Printf("Closing redis connection...")
			if err := app.RedisConn.Close(); err != nil {
				log.Printf("redis shutdown error: %v", err)
			}
		}

		if app.DbConn != nil {
			log.Printf("Closing database connection...")
			if sqlDB, err := app.DbConn.DB(); err == nil {
				sqlDB.Close()
			}
		}

		log.Printf("Application shutdown complete")
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %v", ctx.Err())
	}
}
