package db

import (
	"context"
	"errors"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	"gorm.io/gorm"
)

type IInvoiceRepository interface {
	CreateInvoice(ctx context.Context, invoice *model.Invoice) error
	GetInvoiceByOrderID(ctx context.Context, orderID string) (*model.Invoice, error)
	GetInvoiceWithDetails(ctx context.Context, orderID string) (*model.Invoice, error)
	CountDetails(ctx context.Context, invoiceID string) (int64, error)
	CreateDetails(ctx context.Context, details []model.InvoiceDetail) error
	UpdateReceiptURL(ctx context.Context, invoiceID, receiptURL string) error
}

type InvoiceRepo struct {
	db *DbDao
}

func NewInvoiceRepo(db *DbDao) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

func (r *InvoiceRepo) CreateInvoice(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// GetInvoiceByOrderID 查無發票回傳 nil, nil，讓呼叫端好做 lookup-before-create
func (r *InvoiceRepo) GetInvoiceByOrderID(ctx context.Context, orderID string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).First(&invoice, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepo) GetInvoiceWithDetails(ctx context.Context, orderID string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).Preload("Details").First(&invoice, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepo) CountDetails(ctx context.Context, invoiceID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.InvoiceDetail{}).
		Where("invoice_id = ?", invoiceID).Count(&count).Error
	return count, err
}

func (r *InvoiceRepo) CreateDetails(ctx context.Context, details []model.InvoiceDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&details).Error
}

func (r *InvoiceRepo) UpdateReceiptURL(ctx context.Context, invoiceID, receiptURL string) error {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("invoice_id = ?", invoiceID).
		Update("receipt_url", receiptURL).Error
}

var _ IInvoiceRepository = (*InvoiceRepo)(nil)
