package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/booking"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.DepositInvoice, bookingIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(inv).Error; err != nil {
		return translateError(err, "deposit invoice", nil)
	}

	links := make([]domain.DepositInvoiceBooking, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		links = append(links, domain.DepositInvoiceBooking{InvoiceID: inv.ID, BookingID: id})
	}
	if err := db.Create(&links).Error; err != nil {
		return translateError(err, "deposit invoice", inv.ID)
	}
	inv.BookingIDs = bookingIDs
	return nil
}

type invoiceLinkRow struct {
	domain.DepositInvoice
	LinkedCount int64
}

func (r *InvoiceRepository) ListByBooking(ctx context.Context, bookingID int64) ([]booking.InvoiceLink, error) {
	q := `
SELECT i.*,
       (SELECT COUNT(*) FROM deposit_invoice_bookings l2 WHERE l2.invoice_id = i.id) AS linked_count
FROM deposit_invoices i
JOIN deposit_invoice_bookings l ON l.invoice_id = i.id
WHERE l.booking_id = ?
ORDER BY i.id
`
	var rows []invoiceLinkRow
	if err := r.db.WithContext(ctx).Raw(q, bookingID).Scan(&rows).Error; err != nil {
		return nil, translateError(err, "deposit invoice", nil)
	}

	out := make([]booking.InvoiceLink, 0, len(rows))
	for _, row := range rows {
		out = append(out, booking.InvoiceLink{Invoice: row.DepositInvoice, LinkedCount: row.LinkedCount})
	}
	return out, nil
}

// Void only touches invoices that are still ISSUED.
func (r *InvoiceRepository) Void(ctx context.Context, invoiceID int64, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&domain.DepositInvoice{}).
		Where("id = ? AND status = ?", invoiceID, domain.InvoiceIssued).
		Updates(map[string]any{
			"status":    domain.InvoiceVoid,
			"voided_at": at,
		}).Error
	return translateError(err, "deposit invoice", invoiceID)
}
