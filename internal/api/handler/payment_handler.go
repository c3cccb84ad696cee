package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/SHolweger/payment-service-main/internal/api/dto"
	event_handler "github.com/SHolweger/payment-service-main/internal/handler/event"
	"github.com/SHolweger/payment-service-main/internal/service"
	"github.com/SHolweger/payment-service-main/internal/webhook"
	"github.com/rs/zerolog"
)

// 閘道送來的 payload 不該大到哪裡去，超過就當惡意請求
const maxWebhookBodyBytes = 1 << 20

type PaymentHandler struct {
	verifier        *webhook.Verifier
	dispatcher      event_handler.Handler
	checkoutService service.ICheckoutService
	logger          zerolog.Logger
}

func NewPaymentHandler(verifier *webhook.Verifier, dispatcher event_handler.Handler, checkoutService service.ICheckoutService, logger zerolog.Logger) *PaymentHandler {
	if verifier == nil {
		panic("verifier cannot be nil")
	}
	if dispatcher == nil {
		panic("dispatcher cannot be nil")
	}
	if checkoutService == nil {
		panic("checkoutService cannot be nil")
	}
	return &PaymentHandler{
		verifier:        verifier,
		dispatcher:      dispatcher,
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// Webhook 簽章驗過之後一律回 200 {"received": true}
// 處理中的錯誤只記 log，回非 2xx 只會引來一模一樣的重送
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	// 簽章蓋在原始 bytes 上，不能先過 json decoder
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "cannot read body")
		return
	}

	evt, err := h.verifier.VerifyAndParse(body, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn().Err(err).Msg("webhook signature rejected")
			errorJSON(w, http.StatusBadRequest, "invalid signature")
			return
		}
		// 簽章對但 payload 解不開，回 200 免得閘道重送同一包爛資料
		h.logger.Error().Err(err).Msg("webhook payload unparsable")
		successJSON(w, dto.WebhookAck{Received: true})
		return
	}

	if err := h.dispatcher.HandleEvent(r.Context(), evt); err != nil {
		h.logger.Error().Err(err).
			Str("event_id", evt.GetID()).
			Str("event_type", string(evt.Type())).
			Msg("webhook event processing failed")
	}

	successJSON(w, dto.WebhookAck{Received: true})
}

func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCheckoutSessionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.CheckoutItem{
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			VariantID: it.VariantID,
			ProductID: it.ProductID,
		})
	}

	url, err := h.checkoutService.CreateCheckoutSession(r.Context(), service.CheckoutRequest{
		UserID:        req.UserID,
		TaxID:         req.TaxID,
		Destination:   req.Destination,
		ShippingCost:  req.ShippingCost,
		EstimatedDate: req.EstimatedDate,
		Items:         items,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyItems) {
			errorJSON(w, http.StatusBadRequest, "items cannot be empty")
			return
		}
		h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("create checkout session failed")
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	successJSON(w, dto.CheckoutSessionResponse{URL: url})
}
