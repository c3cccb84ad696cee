package router

import (
	"fmt"
	"net/http"

	"github.com/SHolweger/payment-service-main/internal/api"
	m "github.com/SHolweger/payment-service-main/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func SetupRouter(server *api.Server, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))

	// webhook 走原始 body 驗簽，不掛任何會動到 body 的中間件
	r.Post("/webhook/payment", server.PaymentHandler.Webhook)

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/session", server.PaymentHandler.CreateCheckoutSession)
		})
		r.Route("/invoice", func(r chi.Router) {
			r.Post("/", server.InvoiceHandler.Create)
			r.Get("/order/{orderID}", server.InvoiceHandler.GetByOrder)
		})
	})

	// 在設置完所有路由後打印路由樹
	fmt.Println(chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		fmt.Printf("%s %s\n", method, route)
		return nil
	}))
	return r
}
