package repository

import (
	"context"
	"time"

	"erp-backend/internal/model"

	"gorm.io/gorm"
)

// InvoiceListFilter narrows the invoice listing. Zero values mean "no filter".
type InvoiceListFilter struct {
	DTEStatus string
	DTEType   int
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	Limit     int
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id int64) (*model.Invoice, error)
	FindByIDWithItems(ctx context.Context, id int64) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error)
	UpdateDTE(ctx context.Context, id int64, status string, docType int, folio int64, sentAt time.Time, dteStatus, xml string) error
	UpdateDTEStatus(ctx context.Context, id int64, status, dteStatus string) error
	Delete(ctx context.Context, id int64) error
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id int64) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDWithItems(ctx context.Context, id int64) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items").First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error) {
	db := GetDB(ctx, r.db)

	apply := func(q *gorm.DB) *gorm.DB {
		if filter.DTEStatus != "" {
			q = q.Where("dte_estado = ?", filter.DTEStatus)
		}
		if filter.DTEType != 0 {
			q = q.Where("dte_tipo = ?", filter.DTEType)
		}
		if filter.DateFrom != nil {
			q = q.Where("fecha_factura >= ?", *filter.DateFrom)
		}
		if filter.DateTo != nil {
			q = q.Where("fecha_factura <= ?", *filter.DateTo)
		}
		return q
	}

	var total int64
	if err := apply(db.Model(&model.Invoice{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []model.Invoice
	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("Items")).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// UpdateDTE applies the invoice-level mutation of a generation: processing
// status, document type, folio, submission timestamp, submission state and the
// rendered payload, in one statement.
func (r *invoiceRepository) UpdateDTE(ctx context.Context, id int64, status string, docType int, folio int64, sentAt time.Time, dteStatus, xml string) error {
	return GetDB(ctx, r.db).Model(&model.Invoice{}).Where("id = ?", id).Updates(map[string]interface{}{
		"estado":          status,
		"dte_folio":       folio,
		"dte_tipo":        docType,
		"dte_fecha_envio": sentAt,
		"dte_estado":      dteStatus,
		"dte_xml":         xml,
	}).Error
}

// UpdateDTEStatus refreshes only the processing status fields, used when a
// resend verdict arrives for an already-numbered document.
func (r *invoiceRepository) UpdateDTEStatus(ctx context.Context, id int64, status, dteStatus string) error {
	return GetDB(ctx, r.db).Model(&model.Invoice{}).Where("id = ?", id).Updates(map[string]interface{}{
		"estado":     status,
		"dte_estado": dteStatus,
	}).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id int64) error {
	return GetDB(ctx, r.db).Select("Items").Delete(&model.Invoice{ID: id}).Error
}
