package service

import (
	"context"
	"time"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	"github.com/SHolweger/payment-service-main/internal/infra/gateway"
	"github.com/SHolweger/payment-service-main/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type IInvoiceService interface {
	// EnsureInvoice 同一張訂單重入任意次，只會有一張發票與一組明細
	EnsureInvoice(ctx context.Context, order *model.Order, paymentRef string, items []model.OrderLineItem) (*model.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID string) (*model.Invoice, error)
	CreateManualInvoice(ctx context.Context, order *model.Order, taxID string) (*model.Invoice, error)
}

type InvoiceService struct {
	invoiceRepo db.IInvoiceRepository
	payment     gateway.IPaymentClient
	company     string
	logger      zerolog.Logger
}

// NewInvoiceService company 是開票方名稱，會印在每張發票上
func NewInvoiceService(invoiceRepo db.IInvoiceRepository, payment gateway.IPaymentClient, company string, logger zerolog.Logger) *InvoiceService {
	if invoiceRepo == nil {
		panic("invoiceRepo cannot be nil")
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		payment:     payment,
		company:     company,
		logger:      logger,
	}
}

// EnsureInvoice 流程:
//  1. 先查有沒有發票，有就沿用 (重播事件)，缺收據 url 順便補
//  2. 沒有就開一張，金額直接抄訂單，收據 url 補得到就補
//  3. 明細只在數量為 0 時寫入，防掛在明細寫入前的重播寫兩次
//
// 收據查詢失敗不是致命錯誤，發票本體寫不進去才往上拋
func (s *InvoiceService) EnsureInvoice(ctx context.Context, order *model.Order, paymentRef string, items []model.OrderLineItem) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceByOrderID(ctx, order.OrderID)
	if err != nil {
		return nil, err
	}

	if invoice == nil {
		receiptURL := s.lookupReceiptURL(ctx, paymentRef)
		invoice = &model.Invoice{
			InvoiceID:   uuid.NewString(),
			OrderID:     order.OrderID,
			UserID:      order.UserID,
			Company:     s.company,
			TotalAmount: order.AmountSettlement,
			Currency:    order.Currency,
			TaxID:       order.TaxID,
			ReceiptURL:  receiptURL,
			Status:      model.InvoiceStatusIssued,
			IssuedAt:    time.Now().UTC(),
		}
		if err := s.invoiceRepo.CreateInvoice(ctx, invoice); err != nil {
			return nil, err
		}
	} else if invoice.ReceiptURL == "" {
		// 開票當下金流服務掛了的話收據會是空的，靠重播補回來
		s.backfillReceiptURL(ctx, invoice, paymentRef)
	}

	if err := s.ensureDetails(ctx, invoice, items); err != nil {
		return nil, err
	}
	return invoice, nil
}

// backfillReceiptURL 失敗只記 log，下一次重播再補
func (s *InvoiceService) backfillReceiptURL(ctx context.Context, invoice *model.Invoice, paymentRef string) {
	receiptURL := s.lookupReceiptURL(ctx, paymentRef)
	if receiptURL == "" {
		return
	}
	if err := s.invoiceRepo.UpdateReceiptURL(ctx, invoice.InvoiceID, receiptURL); err != nil {
		s.logger.Warn().Err(err).Str("invoice_id", invoice.InvoiceID).Msg("receipt url backfill failed")
		return
	}
	invoice.ReceiptURL = receiptURL
}

func (s *InvoiceService) lookupReceiptURL(ctx context.Context, paymentRef string) string {
	if s.payment == nil || paymentRef == "" {
		return ""
	}
	intent, err := s.payment.GetPaymentIntent(ctx, paymentRef)
	if err != nil {
		s.logger.Warn().Err(err).Str("payment_ref", paymentRef).Msg("receipt lookup failed, invoice will have no receipt url")
		return ""
	}
	return intent.ReceiptURL
}

func (s *InvoiceService) ensureDetails(ctx context.Context, invoice *model.Invoice, items []model.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}

	count, err := s.invoiceRepo.CountDetails(ctx, invoice.InvoiceID)
	if err != nil {
		return err
	}
	if count > 0 {
		// 明細已存在，重播事件直接跳過
		return nil
	}

	details := make([]model.InvoiceDetail, 0, len(items))
	for _, item := range items {
		details = append(details, model.InvoiceDetail{
			DetailID:            uuid.NewString(),
			InvoiceID:           invoice.InvoiceID,
			ProductName:         item.Name,
			Quantity:            item.Quantity,
			UnitPriceNative:     item.UnitPriceNative,
			UnitPriceSettlement: item.UnitPriceSettlement,
			SubtotalNative:      item.SubtotalNative(),
			SubtotalSettlement:  item.SubtotalSettlement(),
		})
	}
	return s.invoiceRepo.CreateDetails(ctx, details)
}

func (s *InvoiceService) GetInvoiceByOrder(ctx context.Context, orderID string) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceWithDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotExist
	}
	return invoice, nil
}

// CreateManualInvoice 補開發票 (例如客戶事後要統編)，只開給已付款訂單
func (s *InvoiceService) CreateManualInvoice(ctx context.Context, order *model.Order, taxID string) (*model.Invoice, error) {
	if order.Status != model.OrderStatusPaid {
		return nil, ErrOrderNotPaid
	}

	existing, err := s.invoiceRepo.GetInvoiceByOrderID(ctx, order.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrInvoiceExists
	}

	invoice := &model.Invoice{
		InvoiceID:   uuid.NewString(),
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		Company:     s.company,
		TotalAmount: order.AmountSettlement,
		Currency:    order.Currency,
		TaxID:       taxID,
		Status:      model.InvoiceStatusIssued,
		IssuedAt:    time.Now().UTC(),
	}
	if err := s.invoiceRepo.CreateInvoice(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

var _ IInvoiceService = (*InvoiceService)(nil)
