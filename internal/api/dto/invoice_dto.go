package dto

import (
	"time"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	"github.com/shopspring/decimal"
)

type CreateInvoiceDTO struct {
	OrderID string `json:"orderId"`
	TaxID   string `json:"taxId,omitempty"`
}

type InvoiceDetailDTO struct {
	ProductName         string          `json:"productName"`
	Quantity            int             `json:"quantity"`
	UnitPriceNative     decimal.Decimal `json:"unitPriceNative"`
	UnitPriceSettlement decimal.Decimal `json:"unitPriceSettlement"`
	SubtotalNative      decimal.Decimal `json:"subtotalNative"`
	SubtotalSettlement  decimal.Decimal `json:"subtotalSettlement"`
}

type InvoiceDTO struct {
	InvoiceID   string             `json:"invoiceId"`
	OrderID     string             `json:"orderId"`
	Company     string             `json:"company,omitempty"`
	TotalAmount int64              `json:"totalAmount"`
	Currency    string             `json:"currency"`
	TaxID       string             `json:"taxId,omitempty"`
	ReceiptURL  string             `json:"receiptUrl,omitempty"`
	Status      string             `json:"status"`
	IssuedAt    time.Time          `json:"issuedAt"`
	Details     []InvoiceDetailDTO `json:"details,omitempty"`
}

func ConvertInvoiceModelToDTO(invoice *model.Invoice) InvoiceDTO {
	out := InvoiceDTO{
		InvoiceID:   invoice.InvoiceID,
		OrderID:     invoice.OrderID,
		Company:     invoice.Company,
		TotalAmount: invoice.TotalAmount,
		Currency:    invoice.Currency,
		TaxID:       invoice.TaxID,
		ReceiptURL:  invoice.ReceiptURL,
		Status:      invoice.Status,
		IssuedAt:    invoice.IssuedAt,
	}
	for _, d := range invoice.Details {
		out.Details = append(out.Details, InvoiceDetailDTO{
			ProductName:         d.ProductName,
			Quantity:            d.Quantity,
			UnitPriceNative:     d.UnitPriceNative,
			UnitPriceSettlement: d.UnitPriceSettlement,
			SubtotalNative:      d.SubtotalNative,
			SubtotalSettlement:  d.SubtotalSettlement,
		})
	}
	return out
}
