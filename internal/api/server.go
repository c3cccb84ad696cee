package api

import "github.com/SHolweger/payment-service-main/internal/api/handler"

type Server struct {
	PaymentHandler *handler.PaymentHandler
	InvoiceHandler *handler.InvoiceHandler
}

func NewServer(
	paymentHandler *handler.PaymentHandler,
	invoiceHandler *handler.InvoiceHandler,
) *Server {
	return &Server{
		PaymentHandler: paymentHandler,
		InvoiceHandler: invoiceHandler,
	}
}
