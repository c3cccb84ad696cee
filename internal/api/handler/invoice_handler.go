package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SHolweger/payment-service-main/internal/api/dto"
	"github.com/SHolweger/payment-service-main/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type InvoiceHandler struct {
	orderService   service.IOrderService
	invoiceService service.IInvoiceService
	logger         zerolog.Logger
}

func NewInvoiceHandler(orderService service.IOrderService, invoiceService service.IInvoiceService, logger zerolog.Logger) *InvoiceHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	if invoiceService == nil {
		panic("invoiceService cannot be nil")
	}
	return &InvoiceHandler{
		orderService:   orderService,
		invoiceService: invoiceService,
		logger:         logger,
	}
}

func (h *InvoiceHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		errorJSON(w, http.StatusBadRequest, "order id is required")
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrInvoiceNotExist) {
			errorJSON(w, http.StatusNotFound, "invoice not found")
			return
		}
		h.logger.Error().Err(err).Str("order_id", orderID).Msg("get invoice failed")
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	successJSON(w, dto.ConvertInvoiceModelToDTO(invoice))
}

// Create 補開發票，只開給已付款且還沒有發票的訂單
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInvoiceDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		errorJSON(w, http.StatusBadRequest, "order id is required")
		return
	}

	ctx := r.Context()
	order, err := h.orderService.GetOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotExist) {
			errorJSON(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("get order failed")
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	invoice, err := h.invoiceService.CreateManualInvoice(ctx, order, req.TaxID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotPaid):
			errorJSON(w, http.StatusConflict, "order is not paid")
		case errors.Is(err, service.ErrInvoiceExists):
			errorJSON(w, http.StatusConflict, "invoice already exists")
		default:
			h.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("create invoice failed")
			errorJSON(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	successJSON(w, dto.ConvertInvoiceModelToDTO(invoice))
}
