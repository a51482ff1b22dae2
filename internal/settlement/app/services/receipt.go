package services

import (
	"wheres-my-tab/internal/settlement/domain/models"

	"github.com/shopspring/decimal"
)

// GeneratePartialReceipt projects one ledger entry into a printable receipt.
// A payment without itemisation prints as a single generic line.
func GeneratePartialReceipt(payment models.SessionPayment, shop models.ShopInfo, partialLabel string) models.Receipt {
	lines := make([]models.ReceiptLine, 0, len(payment.PaidItems))
	for _, pi := range payment.PaidItems {
		lines = append(lines, models.ReceiptLine{
			Name:      pi.MenuItemName,
			Quantity:  pi.Quantity,
			UnitPrice: pi.Price,
			Total:     pi.Price.Mul(decimal.NewFromInt(int64(pi.Quantity))),
		})
	}
	if len(lines) == 0 {
		lines = append(lines, models.ReceiptLine{
			Name:      partialLabel,
			Quantity:  1,
			UnitPrice: payment.Amount,
			Total:     payment.Amount,
		})
	}

	return models.Receipt{
		PaymentID:     payment.ID,
		SessionID:     payment.SessionID,
		Shop:          shop,
		Items:         lines,
		Total:         payment.Amount,
		PaidAt:        payment.PaidAt,
		PaymentMethod: payment.PaymentMethod,
		Smac:          payment.Smac,
		Notes:         payment.Notes,
	}
}
